package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) UploadImages(ctx context.Context, files []service.ImageFile) ([]string, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductService) GetAll(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Filter(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id string, upd *model.ProductUpdate) (*model.Product, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cart(args mock.Arguments) ([]model.CartLine, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartLine), args.Error(1)
}

func (m *MockCartService) AddLine(ctx context.Context, userID uuid.UUID, req *model.AddToCartRequest) ([]model.CartLine, error) {
	return m.cart(m.Called(ctx, userID, req))
}

func (m *MockCartService) SetLineQuantity(ctx context.Context, userID uuid.UUID, lineID string, req *model.UpdateCartRequest) ([]model.CartLine, error) {
	return m.cart(m.Called(ctx, userID, lineID, req))
}

func (m *MockCartService) RemoveLine(ctx context.Context, userID uuid.UUID, lineID string) ([]model.CartLine, error) {
	return m.cart(m.Called(ctx, userID, lineID))
}

func (m *MockCartService) GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error) {
	return m.cart(m.Called(ctx, userID))
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, p *model.Principal, req *model.OrderRequest, key string) (*model.Order, error) {
	return m.order(m.Called(ctx, p, req, key))
}

func (m *MockOrderService) ListOrders(ctx context.Context, p *model.Principal) ([]model.Order, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string, p *model.Principal) (*model.Order, error) {
	return m.order(m.Called(ctx, id, p))
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, id string, req *model.OrderUpdateRequest, p *model.Principal) (*model.Order, error) {
	return m.order(m.Called(ctx, id, req, p))
}

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) user(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return m.user(m.Called(ctx, req))
}

func (m *MockUserService) Login(ctx context.Context, req *model.LoginRequest) (*service.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	return m.user(m.Called(ctx, userID, req))
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID uuid.UUID, req *model.ChangePasswordRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *MockUserService) ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, token string, req *model.ResetPasswordRequest) error {
	return m.Called(ctx, token, req).Error(0)
}

func (m *MockUserService) EnsureAdmin(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	return m.user(m.Called(ctx, req))
}

// asUser attaches p to the request context the way the auth middleware does.
func asUser(req *http.Request, p *model.Principal) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

// decodeBody parses a JSON response and checks it carries a message.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "message")
	return body
}
