// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"veridoc/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain records and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts}
}

// CreateCompany constructs and persists a sample company.
func (f *Factory) CreateCompany(overrides ...func(*models.Company)) (*models.Company, error) {
	company := &models.Company{
		Name:     gofakeit.Company(),
		TaxID:    fmt.Sprintf("%s-%08d", gofakeit.LetterN(3), gofakeit.Number(0, 99999999)),
		IsActive: true,
	}
	for _, override := range overrides {
		override(company)
	}
	if err := f.db.Create(company).Error; err != nil {
		return nil, err
	}
	return company, nil
}

// CreateUser constructs and persists a user in the given company.
// All seeded users share the password "password123".
func (f *Factory) CreateUser(company *models.Company, role models.UserRole, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		CompanyID: company.ID,
		Email:     fmt.Sprintf("%s.%s@%s", strings.ToLower(gofakeit.FirstName()), uuid.NewString()[:8], gofakeit.DomainName()),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Role:      role,
		IsActive:  true,
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateEntityType constructs and persists an entity type for the company.
func (f *Factory) CreateEntityType(company *models.Company, name, slug string) (*models.EntityType, error) {
	et := &models.EntityType{
		CompanyID:   company.ID,
		Name:        name,
		Slug:        slug,
		Description: gofakeit.Sentence(8),
	}
	if err := f.db.Create(et).Error; err != nil {
		return nil, err
	}
	return et, nil
}

// CreateEntity constructs and persists an entity of the given type.
func (f *Factory) CreateEntity(et *models.EntityType, overrides ...func(*models.Entity)) (*models.Entity, error) {
	entity := &models.Entity{
		CompanyID:    et.CompanyID,
		EntityTypeID: et.ID,
		Name:         gofakeit.ProductName(),
		Metadata: map[string]any{
			"city": gofakeit.City(),
			"code": gofakeit.LetterN(6),
		},
		IsActive: true,
	}
	for _, override := range overrides {
		override(entity)
	}
	if err := f.db.Create(entity).Error; err != nil {
		return nil, err
	}
	return entity, nil
}

var seedMimeTypes = []struct {
	mime string
	ext  string
}{
	{"application/pdf", ".pdf"},
	{"image/png", ".png"},
	{"image/jpeg", ".jpg"},
	{"text/csv", ".csv"},
}

// CreateDocument constructs and persists a document attached to the entity.
func (f *Factory) CreateDocument(entity *models.Entity, uploader *models.User, slug string, overrides ...func(*models.Document)) (*models.Document, error) {
	kind := seedMimeTypes[gofakeit.Number(0, len(seedMimeTypes)-1)]
	name := strings.ToLower(strings.ReplaceAll(gofakeit.NounAbstract(), " ", "-")) + kind.ext
	doc := &models.Document{
		CompanyID:    entity.CompanyID,
		EntityID:     entity.ID,
		UploadedByID: uploader.ID,
		Name:         name,
		MimeType:     kind.mime,
		SizeBytes:    int64(gofakeit.Number(1024, 8<<20)),
		StorageKey: fmt.Sprintf("companies/%s/%s/%s/docs/%s%s",
			entity.CompanyID, slug, entity.ID, uuid.New(), kind.ext),
		Description: gofakeit.Sentence(10),
		Tags:        []string{gofakeit.BuzzWord(), gofakeit.BuzzWord()},
	}
	for _, override := range overrides {
		override(doc)
	}
	if err := f.db.Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateFlow persists a validation flow over the given approvers, one step
// per approver in slice order, and marks the document pending.
func (f *Factory) CreateFlow(doc *models.Document, approvers []*models.User) (*models.ValidationFlow, error) {
	flow := &models.ValidationFlow{DocumentID: doc.ID, Active: true}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(flow).Error; err != nil {
			return err
		}
		for i, approver := range approvers {
			step := &models.ValidationStep{
				ValidationFlowID: flow.ID,
				Order:            i + 1,
				ApproverID:       approver.ID,
				Status:           models.StepStatusPending,
			}
			if err := tx.Create(step).Error; err != nil {
				return err
			}
			flow.Steps = append(flow.Steps, *step)
		}
		pending := models.ValidationStatusPending
		return tx.Model(doc).Update("validation_status", &pending).Error
	})
	if err != nil {
		return nil, err
	}
	return flow, nil
}
