package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"veridoc/internal/config"
	"veridoc/internal/middleware"
	"veridoc/internal/models"
	"veridoc/internal/repository"
	"veridoc/internal/service"
	"veridoc/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeStore is an in-memory ObjectStore for handler tests.
type fakeStore struct {
	objects map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]bool{}}
}

func (f *fakeStore) PresignUpload(_ context.Context, key, _ string) (string, time.Time, error) {
	return "https://bucket.test/upload/" + key, time.Now().Add(15 * time.Minute), nil
}

func (f *fakeStore) PresignDownload(_ context.Context, key string) (string, time.Time, error) {
	return "https://bucket.test/download/" + key, time.Now().Add(15 * time.Minute), nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	return f.objects[key], nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

var _ storage.ObjectStore = (*fakeStore)(nil)

type testEnv struct {
	app      *fiber.App
	server   *Server
	db       *gorm.DB
	store    *fakeStore
	company  *models.Company
	admin    *models.User
	approver *models.User
	member   *models.User
	entity   *models.Entity
}

// newTestEnv builds a Server against in-memory sqlite with an auth stub
// that trusts the X-Test-User header.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Company{}, &models.User{},
		&models.EntityType{}, &models.Entity{}, &models.Document{},
		&models.ValidationFlow{}, &models.ValidationStep{}, &models.ValidationAction{},
	))

	cfg := &config.Config{
		JWTSecret:         "test-secret-that-is-long-enough-000",
		Env:               "test",
		MaxUploadSizeMB:   10,
		PresignTTLMinutes: 15,
	}

	store := newFakeStore()
	userRepo := repository.NewUserRepository(db)
	entityRepo := repository.NewEntityRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	validationRepo := repository.NewValidationRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		userRepo:       userRepo,
		entityRepo:     entityRepo,
		documentRepo:   documentRepo,
		validationRepo: validationRepo,
	}
	s.validationService = service.NewValidationService(validationRepo, documentRepo, userRepo, db)
	s.documentService = service.NewDocumentService(
		documentRepo, entityRepo, s.validationService, store, cfg, middleware.Logger)

	env := &testEnv{server: s, db: db, store: store}
	env.company = &models.Company{Name: "Acme Logistics", TaxID: "ACME-001", IsActive: true}
	require.NoError(t, db.Create(env.company).Error)

	hashed, err := bcrypt.GenerateFromPassword([]byte("SecurePass12!@"), bcrypt.MinCost)
	require.NoError(t, err)

	env.admin = env.createUser(t, "admin@acme.test", models.UserRoleAdmin, string(hashed))
	env.approver = env.createUser(t, "approver@acme.test", models.UserRoleApprover, string(hashed))
	env.member = env.createUser(t, "member@acme.test", models.UserRoleMember, string(hashed))

	et := &models.EntityType{CompanyID: env.company.ID, Name: "Vehicle", Slug: "vehicle"}
	require.NoError(t, db.Create(et).Error)
	env.entity = &models.Entity{CompanyID: env.company.ID, EntityTypeID: et.ID, Name: "Truck 7", IsActive: true}
	require.NoError(t, db.Create(env.entity).Error)

	app := fiber.New()
	app.Post("/api/auth/login", s.Login)

	// Protected routes behind an auth stub: the X-Test-User header carries
	// the acting user's ID.
	protected := app.Group("/api", func(c *fiber.Ctx) error {
		raw := c.Get("X-Test-User")
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals("userID", id)
		return c.Next()
	})
	protected.Get("/users/me", s.GetMyProfile)
	documents := protected.Group("/documents")
	documents.Post("/", s.RegisterDocument)
	documents.Post("/upload-url", s.GenerateUploadURL)
	documents.Get("/pending-approvals", s.GetPendingApprovals)
	documents.Get("/approval-stats", s.GetApprovalStats)
	documents.Get("/", s.GetDocuments)
	documents.Get("/:id/download", s.DownloadDocument)
	documents.Get("/:id/validation-status", s.GetValidationStatus)
	documents.Get("/:id/actions", s.GetValidationActions)
	documents.Post("/:id/approve", s.ApproveDocument)
	documents.Post("/:id/reject", s.RejectDocument)
	documents.Get("/:id", s.GetDocument)
	documents.Delete("/:id", s.DeleteDocument)

	env.app = app
	return env
}

func (e *testEnv) createUser(t *testing.T, email string, role models.UserRole, password string) *models.User {
	t.Helper()
	u := &models.User{
		CompanyID: e.company.ID,
		Email:     email,
		Password:  password,
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) createDocument(t *testing.T, uploader *models.User) *models.Document {
	t.Helper()
	key := "companies/" + e.company.ID.String() + "/vehicle/" + e.entity.ID.String() + "/docs/" + uuid.NewString() + ".pdf"
	doc := &models.Document{
		CompanyID:    e.company.ID,
		EntityID:     e.entity.ID,
		UploadedByID: uploader.ID,
		Name:         "contract.pdf",
		MimeType:     "application/pdf",
		SizeBytes:    2048,
		StorageKey:   key,
	}
	require.NoError(t, e.db.Create(doc).Error)
	e.store.objects[key] = true
	return doc
}

// request performs an HTTP request against the test app as the given user.
func (e *testEnv) request(t *testing.T, method, path string, body any, as *models.User) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("X-Test-User", as.ID.String())
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}
