package seed

import (
	"context"
	"fmt"
	"log"

	"veridoc/internal/models"
	"veridoc/internal/repository"
	"veridoc/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumCompanies    int
	UsersPerCompany int
	DocsPerCompany  int
	ShouldClean     bool
	// SkipBcrypt stores seed passwords in plain text for faster dev runs.
	SkipBcrypt bool
}

var entityTypePresets = []struct {
	name string
	slug string
}{
	{"Vehicle", "vehicle"},
	{"Employee", "employee"},
	{"Contract", "contract"},
	{"Property", "property"},
}

// Seed populates the database with demo tenants, users, entities, documents
// and validation flows in every lifecycle state.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d companies, %d users and %d documents each...",
		opts.NumCompanies, opts.UsersPerCompany, opts.DocsPerCompany)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory := NewFactory(db, opts)
	svc := service.NewValidationService(
		repository.NewValidationRepository(db),
		repository.NewDocumentRepository(db),
		repository.NewUserRepository(db),
		db,
	)

	for i := 0; i < opts.NumCompanies; i++ {
		if err := seedCompany(db, factory, svc, opts); err != nil {
			return fmt.Errorf("failed to seed company %d: %w", i+1, err)
		}
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func seedCompany(db *gorm.DB, factory *Factory, svc *service.ValidationService, opts Options) error {
	ctx := context.Background()

	company, err := factory.CreateCompany()
	if err != nil {
		return err
	}

	// One admin, a pool of approvers, the rest members.
	admin, err := factory.CreateUser(company, models.UserRoleAdmin)
	if err != nil {
		return err
	}
	var approvers []*models.User
	numApprovers := opts.UsersPerCompany / 3
	if numApprovers < 2 {
		numApprovers = 2
	}
	for i := 0; i < numApprovers; i++ {
		u, err := factory.CreateUser(company, models.UserRoleApprover)
		if err != nil {
			return err
		}
		approvers = append(approvers, u)
	}
	var members []*models.User
	for i := numApprovers + 1; i < opts.UsersPerCompany; i++ {
		u, err := factory.CreateUser(company, models.UserRoleMember)
		if err != nil {
			return err
		}
		members = append(members, u)
	}
	if len(members) == 0 {
		members = append(members, admin)
	}

	var entities []*models.Entity
	var slugs []string
	for _, preset := range entityTypePresets {
		et, err := factory.CreateEntityType(company, preset.name, preset.slug)
		if err != nil {
			return err
		}
		for i := 0; i < 2; i++ {
			entity, err := factory.CreateEntity(et)
			if err != nil {
				return err
			}
			entities = append(entities, entity)
			slugs = append(slugs, preset.slug)
		}
	}

	for i := 0; i < opts.DocsPerCompany; i++ {
		idx := gofakeit.Number(0, len(entities)-1)
		uploader := members[gofakeit.Number(0, len(members)-1)]
		doc, err := factory.CreateDocument(entities[idx], uploader, slugs[idx])
		if err != nil {
			return err
		}

		// Roughly: a third without validation, a third pending, and the rest
		// driven to a terminal state through the engine.
		roll := gofakeit.Number(0, 99)
		if roll < 33 {
			continue
		}

		steps := []service.StepInput{
			{Order: 1, ApproverID: approvers[0].ID},
			{Order: 2, ApproverID: approvers[1].ID},
			{Order: 3, ApproverID: admin.ID},
		}
		if _, err := svc.CreateFlow(ctx, doc.ID, steps); err != nil {
			return err
		}

		switch {
		case roll < 66:
			// stays pending, possibly with a partial approval
			if roll%2 == 0 {
				if _, err := svc.Approve(ctx, doc.ID, approvers[0].ID, "seed: first sign-off"); err != nil {
					return err
				}
			}
		case roll < 85:
			// top approver approves, which completes the flow via hierarchy
			if _, err := svc.Approve(ctx, doc.ID, admin.ID, "seed: final sign-off"); err != nil {
				return err
			}
		default:
			if _, err := svc.Reject(ctx, doc.ID, approvers[1].ID, "seed: "+gofakeit.Sentence(6)); err != nil {
				return err
			}
		}
	}

	log.Printf("Seeded company %q: %d users, %d entities, %d documents",
		company.Name, opts.UsersPerCompany, len(entities), opts.DocsPerCompany)
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE validation_actions, validation_steps, validation_flows, documents, entities, entity_types, users, companies RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}
