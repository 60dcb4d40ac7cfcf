package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildObjectKey(t *testing.T) {
	companyID := uuid.New()
	entityID := uuid.New()

	key := BuildObjectKey(companyID, "warehouse", entityID, "Invoice Q3.PDF")

	assert.True(t, strings.HasPrefix(key, "companies/"+companyID.String()+"/warehouse/"+entityID.String()+"/docs/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"), "extension should be lowercased: %s", key)

	parts := strings.Split(key, "/")
	assert.Len(t, parts, 6)

	// The object name itself must be a fresh UUID, not the client filename.
	name := strings.TrimSuffix(parts[5], ".pdf")
	_, err := uuid.Parse(name)
	assert.NoError(t, err)
	assert.NotContains(t, key, "Invoice")
}

func TestBuildObjectKey_Unique(t *testing.T) {
	companyID := uuid.New()
	entityID := uuid.New()

	a := BuildObjectKey(companyID, "store", entityID, "report.pdf")
	b := BuildObjectKey(companyID, "store", entityID, "report.pdf")
	assert.NotEqual(t, a, b)
}

func TestBuildObjectKey_NoExtension(t *testing.T) {
	key := BuildObjectKey(uuid.New(), "vehicle", uuid.New(), "README")
	assert.NotContains(t, key, ".")
}
