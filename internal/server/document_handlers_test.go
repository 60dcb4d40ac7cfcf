package server

import (
	"net/http"
	"testing"

	"veridoc/internal/models"
	"veridoc/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUploadURLHandler(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/documents/upload-url", fiber.Map{
		"entity_id":  env.entity.ID,
		"filename":   "insurance.pdf",
		"mime_type":  "application/pdf",
		"size_bytes": 4096,
	}, env.member)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var grant service.UploadGrant
	decodeBody(t, resp, &grant)
	assert.NotEmpty(t, grant.StorageKey)
	assert.Contains(t, grant.UploadURL, grant.StorageKey)

	t.Run("disallowed mime type", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/documents/upload-url", fiber.Map{
			"entity_id":  env.entity.ID,
			"filename":   "run.exe",
			"mime_type":  "application/x-msdownload",
			"size_bytes": 10,
		}, env.member)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown entity", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/documents/upload-url", fiber.Map{
			"entity_id":  uuid.New(),
			"filename":   "insurance.pdf",
			"mime_type":  "application/pdf",
			"size_bytes": 10,
		}, env.member)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRegisterDocumentHandler(t *testing.T) {
	env := newTestEnv(t)

	key := "companies/" + env.company.ID.String() + "/vehicle/" + env.entity.ID.String() + "/docs/" + uuid.NewString() + ".pdf"
	resp := env.request(t, http.MethodPost, "/api/documents/", fiber.Map{
		"entity_id":   env.entity.ID,
		"name":        "insurance.pdf",
		"mime_type":   "application/pdf",
		"size_bytes":  4096,
		"storage_key": key,
		"tags":        []string{"insurance", "2026"},
	}, env.member)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var doc models.Document
	decodeBody(t, resp, &doc)
	assert.Equal(t, env.company.ID, doc.CompanyID)
	assert.Equal(t, env.member.ID, doc.UploadedByID)
	assert.Nil(t, doc.ValidationStatus)

	t.Run("with validation flow", func(t *testing.T) {
		key := "companies/" + env.company.ID.String() + "/vehicle/" + env.entity.ID.String() + "/docs/" + uuid.NewString() + ".pdf"
		resp := env.request(t, http.MethodPost, "/api/documents/", fiber.Map{
			"entity_id":   env.entity.ID,
			"name":        "contract.pdf",
			"mime_type":   "application/pdf",
			"size_bytes":  1024,
			"storage_key": key,
			"validation_steps": []fiber.Map{
				{"order": 1, "approver_id": env.approver.ID},
				{"order": 2, "approver_id": env.admin.ID},
			},
		}, env.member)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var doc models.Document
		decodeBody(t, resp, &doc)
		require.NotNil(t, doc.ValidationStatus)
		assert.Equal(t, models.ValidationStatusPending, *doc.ValidationStatus)
	})

	t.Run("duplicate step order", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/documents/", fiber.Map{
			"entity_id":   env.entity.ID,
			"name":        "contract.pdf",
			"mime_type":   "application/pdf",
			"size_bytes":  1024,
			"storage_key": "companies/x/docs/" + uuid.NewString() + ".pdf",
			"validation_steps": []fiber.Map{
				{"order": 1, "approver_id": env.approver.ID},
				{"order": 1, "approver_id": env.admin.ID},
			},
		}, env.member)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing storage key", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/documents/", fiber.Map{
			"entity_id":  env.entity.ID,
			"name":       "contract.pdf",
			"mime_type":  "application/pdf",
			"size_bytes": 1024,
		}, env.member)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetDocumentsHandler(t *testing.T) {
	env := newTestEnv(t)
	env.createDocument(t, env.member)
	env.createDocument(t, env.member)

	resp := env.request(t, http.MethodGet, "/api/documents/", nil, env.member)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var docs []models.Document
	decodeBody(t, resp, &docs)
	assert.Len(t, docs, 2)

	t.Run("invalid status filter", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/documents/?status=bogus", nil, env.member)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("entity filter", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/documents/?entity_id="+env.entity.ID.String(), nil, env.member)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var docs []models.Document
		decodeBody(t, resp, &docs)
		assert.Len(t, docs, 2)
	})
}

func TestGetDocumentHandler(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t, env.member)

	resp := env.request(t, http.MethodGet, "/api/documents/"+doc.ID.String(), nil, env.member)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Document
	decodeBody(t, resp, &got)
	assert.Equal(t, doc.ID, got.ID)

	t.Run("invalid id", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/documents/not-a-uuid", nil, env.member)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/documents/"+uuid.NewString(), nil, env.member)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDownloadDocumentHandler(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t, env.member)

	resp := env.request(t, http.MethodGet, "/api/documents/"+doc.ID.String()+"/download", nil, env.member)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var grant service.DownloadGrant
	decodeBody(t, resp, &grant)
	assert.Contains(t, grant.DownloadURL, doc.StorageKey)

	t.Run("object missing from bucket", func(t *testing.T) {
		delete(env.store.objects, doc.StorageKey)
		resp := env.request(t, http.MethodGet, "/api/documents/"+doc.ID.String()+"/download", nil, env.member)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteDocumentHandler(t *testing.T) {
	env := newTestEnv(t)
	doc := env.createDocument(t, env.member)

	resp := env.request(t, http.MethodDelete, "/api/documents/"+doc.ID.String(), nil, env.member)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.False(t, env.store.objects[doc.StorageKey], "stored object should be removed")

	var count int64
	require.NoError(t, env.db.Model(&models.Document{}).Where("id = ?", doc.ID).Count(&count).Error)
	assert.Zero(t, count)
}
