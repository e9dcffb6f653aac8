package stock

import "context"

type MockService struct {
	CreateProductFunc     func(ctx context.Context, product *Product) error
	GetProductFunc        func(ctx context.Context, ownerID, productID int64) (Product, error)
	GetAllProductsFunc    func(ctx context.Context, ownerID int64, limit, offset int) ([]Product, error)
	CheckAvailabilityFunc func(ctx context.Context, ownerID, productID int64) (Availability, error)

	ReserveFunc            func(ctx context.Context, rr ReservationRequest) (Reservation, error)
	CommitFunc             func(ctx context.Context, ownerID int64, reservationID uint64) error
	ReleaseFunc            func(ctx context.Context, ownerID int64, reservationID uint64) error
	CommitBySourceKeyFunc  func(ctx context.Context, ownerID int64, source, sourceKey string) error
	ReleaseBySourceKeyFunc func(ctx context.Context, ownerID int64, source, sourceKey string) error
	CommitManyFunc         func(ctx context.Context, ownerID int64, reservationIDs []uint64) error
	AdjustStockFunc        func(ctx context.Context, ar AdjustmentRequest) error

	GetReservationFunc          func(ctx context.Context, ownerID int64, reservationID uint64) (Reservation, error)
	GetReservationsBySourceFunc func(ctx context.Context, ownerID int64, source, sourceKey string) ([]Reservation, error)
	GetMovementsFunc            func(ctx context.Context, ownerID, productID int64, limit, offset int) ([]Movement, error)
}

func NewMockService() MockService {
	return MockService{
		CreateProductFunc:  func(ctx context.Context, product *Product) error { return nil },
		GetProductFunc:     func(ctx context.Context, ownerID, productID int64) (Product, error) { return Product{}, nil },
		GetAllProductsFunc: func(ctx context.Context, ownerID int64, limit, offset int) ([]Product, error) { return nil, nil },
		CheckAvailabilityFunc: func(ctx context.Context, ownerID, productID int64) (Availability, error) {
			return Availability{}, nil
		},
		ReserveFunc: func(ctx context.Context, rr ReservationRequest) (Reservation, error) {
			return Reservation{}, nil
		},
		CommitFunc:  func(ctx context.Context, ownerID int64, reservationID uint64) error { return nil },
		ReleaseFunc: func(ctx context.Context, ownerID int64, reservationID uint64) error { return nil },
		CommitBySourceKeyFunc: func(ctx context.Context, ownerID int64, source, sourceKey string) error {
			return nil
		},
		ReleaseBySourceKeyFunc: func(ctx context.Context, ownerID int64, source, sourceKey string) error {
			return nil
		},
		CommitManyFunc:  func(ctx context.Context, ownerID int64, reservationIDs []uint64) error { return nil },
		AdjustStockFunc: func(ctx context.Context, ar AdjustmentRequest) error { return nil },
		GetReservationFunc: func(ctx context.Context, ownerID int64, reservationID uint64) (Reservation, error) {
			return Reservation{}, nil
		},
		GetReservationsBySourceFunc: func(ctx context.Context, ownerID int64, source, sourceKey string) ([]Reservation, error) {
			return nil, nil
		},
		GetMovementsFunc: func(ctx context.Context, ownerID, productID int64, limit, offset int) ([]Movement, error) {
			return nil, nil
		},
	}
}

func (m *MockService) CreateProduct(ctx context.Context, product *Product) error {
	return m.CreateProductFunc(ctx, product)
}

func (m *MockService) GetProduct(ctx context.Context, ownerID, productID int64) (Product, error) {
	return m.GetProductFunc(ctx, ownerID, productID)
}

func (m *MockService) GetAllProducts(ctx context.Context, ownerID int64, limit, offset int) ([]Product, error) {
	return m.GetAllProductsFunc(ctx, ownerID, limit, offset)
}

func (m *MockService) CheckAvailability(ctx context.Context, ownerID, productID int64) (Availability, error) {
	return m.CheckAvailabilityFunc(ctx, ownerID, productID)
}

func (m *MockService) Reserve(ctx context.Context, rr ReservationRequest) (Reservation, error) {
	return m.ReserveFunc(ctx, rr)
}

func (m *MockService) Commit(ctx context.Context, ownerID int64, reservationID uint64) error {
	return m.CommitFunc(ctx, ownerID, reservationID)
}

func (m *MockService) Release(ctx context.Context, ownerID int64, reservationID uint64) error {
	return m.ReleaseFunc(ctx, ownerID, reservationID)
}

func (m *MockService) CommitBySourceKey(ctx context.Context, ownerID int64, source, sourceKey string) error {
	return m.CommitBySourceKeyFunc(ctx, ownerID, source, sourceKey)
}

func (m *MockService) ReleaseBySourceKey(ctx context.Context, ownerID int64, source, sourceKey string) error {
	return m.ReleaseBySourceKeyFunc(ctx, ownerID, source, sourceKey)
}

func (m *MockService) CommitMany(ctx context.Context, ownerID int64, reservationIDs []uint64) error {
	return m.CommitManyFunc(ctx, ownerID, reservationIDs)
}

func (m *MockService) AdjustStock(ctx context.Context, ar AdjustmentRequest) error {
	return m.AdjustStockFunc(ctx, ar)
}

func (m *MockService) GetReservation(ctx context.Context, ownerID int64, reservationID uint64) (Reservation, error) {
	return m.GetReservationFunc(ctx, ownerID, reservationID)
}

func (m *MockService) GetReservationsBySource(ctx context.Context, ownerID int64, source, sourceKey string) ([]Reservation, error) {
	return m.GetReservationsBySourceFunc(ctx, ownerID, source, sourceKey)
}

func (m *MockService) GetMovements(ctx context.Context, ownerID, productID int64, limit, offset int) ([]Movement, error) {
	return m.GetMovementsFunc(ctx, ownerID, productID, limit, offset)
}
