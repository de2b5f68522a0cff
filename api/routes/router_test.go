package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orderdeskhq/orderdesk-backend/api/controllers"
	"github.com/orderdeskhq/orderdesk-backend/internal/auth"
	"github.com/orderdeskhq/orderdesk-backend/internal/catalog"
	"github.com/orderdeskhq/orderdesk-backend/internal/orders"
	"github.com/orderdeskhq/orderdesk-backend/internal/users"
	pkgAuth "github.com/orderdeskhq/orderdesk-backend/pkg/auth"
	"github.com/orderdeskhq/orderdesk-backend/pkg/auth/session"
	"github.com/orderdeskhq/orderdesk-backend/pkg/config"
	"github.com/orderdeskhq/orderdesk-backend/pkg/db/models"
	"github.com/orderdeskhq/orderdesk-backend/pkg/enums"
	"github.com/orderdeskhq/orderdesk-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct {
	loginFn func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, req)
	}
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubOrdersService struct {
	listFn func(ctx context.Context, params orders.ListParams) (*orders.OrderList, error)
}

func (s stubOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s stubOrdersService) Submit(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s stubOrdersService) Verify(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s stubOrdersService) Cancel(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s stubOrdersService) List(ctx context.Context, params orders.ListParams) (*orders.OrderList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &orders.OrderList{}, nil
}

func (s stubOrdersService) Detail(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s stubOrdersService) AddAttachment(ctx context.Context, input orders.AttachmentInput) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

func (s stubOrdersService) RemoveAttachment(ctx context.Context, orderID uuid.UUID, index int, actor orders.Actor) (*orders.OrderDetail, error) {
	panic("unimplemented")
}

type stubCatalogService struct {
	listProductsFn func(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductList, error)
}

func (s stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductList, error) {
	if s.listProductsFn != nil {
		return s.listProductsFn(ctx, input)
	}
	return &catalog.ProductList{}, nil
}

func (s stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (s stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (s stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.UpdateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (s stubCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (s stubCatalogService) SetProductEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*models.Product, error) {
	panic("unimplemented")
}

func (s stubCatalogService) BatchCreateProducts(ctx context.Context, inputs []catalog.CreateProductInput) (*catalog.BatchProductResult, error) {
	panic("unimplemented")
}

func (s stubCatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return []models.Category{}, nil
}

func (s stubCatalogService) CreateCategory(ctx context.Context, input catalog.CreateCategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (s stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input catalog.UpdateCategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (s stubCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (s stubCatalogService) ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	return []models.Promotion{}, nil
}

func (s stubCatalogService) CreatePromotion(ctx context.Context, input catalog.CreatePromotionInput) (*models.Promotion, error) {
	panic("unimplemented")
}

func (s stubCatalogService) UpdatePromotion(ctx context.Context, id uuid.UUID, input catalog.UpdatePromotionInput) (*models.Promotion, error) {
	panic("unimplemented")
}

func (s stubCatalogService) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubUsersService struct {
	listFn func(ctx context.Context) ([]users.UserView, error)
	getFn  func(ctx context.Context, id uuid.UUID) (*users.UserView, error)
}

func (s stubUsersService) List(ctx context.Context) ([]users.UserView, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return []users.UserView{}, nil
}

func (s stubUsersService) Get(ctx context.Context, id uuid.UUID) (*users.UserView, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &users.UserView{ID: id}, nil
}

func (s stubUsersService) Create(ctx context.Context, input users.CreateUserInput) (*users.UserView, error) {
	panic("unimplemented")
}

func (s stubUsersService) CreateBatch(ctx context.Context, inputs []users.CreateUserInput) ([]users.UserView, error) {
	panic("unimplemented")
}

func (s stubUsersService) Update(ctx context.Context, id uuid.UUID, input users.UpdateUserInput) (*users.UserView, error) {
	panic("unimplemented")
}

func (s stubUsersService) Deactivate(ctx context.Context, id uuid.UUID) (*users.UserView, error) {
	panic("unimplemented")
}

func (s stubUsersService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubImportsService struct{}

func (stubImportsService) ImportProducts(ctx context.Context, r io.Reader) (*catalog.BatchProductResult, error) {
	panic("unimplemented")
}

func (stubImportsService) ImportUsers(ctx context.Context, r io.Reader) ([]users.UserView, error) {
	panic("unimplemented")
}

func (stubImportsService) ProductTemplate() ([]byte, error) {
	return []byte("template"), nil
}

func (stubImportsService) UserTemplate() ([]byte, error) {
	return []byte("template"), nil
}

type stubObjectSigner struct{}

func (stubObjectSigner) DefaultBucket() string {
	return "test-bucket"
}

func (stubObjectSigner) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	return "https://storage.example.com/upload", nil
}

func (stubObjectSigner) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	return "https://storage.example.com/read", nil
}

func (stubObjectSigner) DeleteObject(ctx context.Context, bucket, object string) error {
	return nil
}

var _ controllers.ObjectSigner = stubObjectSigner{}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             stubPinger{},
		SessionManager: stubSessionManager{},
		AuthService:    stubAuthService{},
		OrdersService:  stubOrdersService{},
		CatalogService: stubCatalogService{},
		UsersService:   stubUsersService{},
		ImportsService: stubImportsService{},
		ObjectSigner:   stubObjectSigner{},
	})
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestMeReturnsAuthenticatedUser(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for me got %d", resp.Code)
	}
}

func TestAdminPingRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	staff := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestUserManagementRequiresCapability(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	for _, role := range []enums.Role{enums.RoleStaff, enums.RoleAccounting} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, role))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for role %s got %d", role, resp.Code)
		}
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin user list got %d", resp.Code)
	}
}

func TestOrderListReachableByStaff(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order list got %d", resp.Code)
	}
}

func TestCatalogReadsAvailableToAllRoles(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	for _, path := range []string{"/api/v1/products", "/api/v1/categories", "/api/v1/promotions"} {
		for _, role := range []enums.Role{enums.RoleAdmin, enums.RoleStaff, enums.RoleAccounting} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, role))
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 for %s as %s got %d", path, role, resp.Code)
			}
		}
	}
}

func TestLoginRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed login got %d", resp.Code)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
