package service

import (
	"context"
	"errors"
	"testing"

	"veridoc/internal/models"
	"veridoc/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type validationFixture struct {
	db      *gorm.DB
	svc     *ValidationService
	company *models.Company
	other   *models.Company
	alice   *models.User // approver, order 1 in the standard flow
	bob     *models.User // approver, order 2
	carol   *models.User // approver, order 3
	mallory *models.User // member, cannot approve
	doc     *models.Document
}

func setupValidationTest(t *testing.T) *validationFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Company{}, &models.User{},
		&models.EntityType{}, &models.Entity{}, &models.Document{},
		&models.ValidationFlow{}, &models.ValidationStep{}, &models.ValidationAction{},
	))

	f := &validationFixture{db: db}
	f.company = &models.Company{Name: "Acme Logistics", TaxID: "ACME-001", IsActive: true}
	f.other = &models.Company{Name: "Rival Corp", TaxID: "RIVAL-001", IsActive: true}
	require.NoError(t, db.Create(f.company).Error)
	require.NoError(t, db.Create(f.other).Error)

	f.alice = newTestUser(t, db, f.company.ID, "alice@acme.test", models.UserRoleApprover)
	f.bob = newTestUser(t, db, f.company.ID, "bob@acme.test", models.UserRoleApprover)
	f.carol = newTestUser(t, db, f.company.ID, "carol@acme.test", models.UserRoleAdmin)
	f.mallory = newTestUser(t, db, f.company.ID, "mallory@acme.test", models.UserRoleMember)

	f.doc = newTestDocument(t, db, f.company.ID, f.mallory.ID, "contract.pdf")

	f.svc = NewValidationService(
		repository.NewValidationRepository(db),
		repository.NewDocumentRepository(db),
		repository.NewUserRepository(db),
		db,
	)
	return f
}

func newTestUser(t *testing.T, db *gorm.DB, companyID uuid.UUID, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		CompanyID: companyID,
		Email:     email,
		Password:  "hashed",
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newTestDocument(t *testing.T, db *gorm.DB, companyID, uploaderID uuid.UUID, name string) *models.Document {
	t.Helper()
	slug := "vehicle-" + uuid.NewString()[:8]
	et := &models.EntityType{CompanyID: companyID, Name: "Vehicle", Slug: slug}
	require.NoError(t, db.Create(et).Error)
	entity := &models.Entity{CompanyID: companyID, EntityTypeID: et.ID, Name: "Truck 7", IsActive: true}
	require.NoError(t, db.Create(entity).Error)

	doc := &models.Document{
		CompanyID:    companyID,
		EntityID:     entity.ID,
		UploadedByID: uploaderID,
		Name:         name,
		MimeType:     "application/pdf",
		SizeBytes:    2048,
		StorageKey:   "companies/" + companyID.String() + "/vehicle/" + entity.ID.String() + "/docs/" + uuid.NewString() + ".pdf",
	}
	require.NoError(t, db.Create(doc).Error)
	return doc
}

// standardFlow creates a 3-step flow: 1 -> alice, 2 -> bob, 3 -> carol.
func (f *validationFixture) standardFlow(t *testing.T) *models.ValidationFlow {
	t.Helper()
	flow, err := f.svc.CreateFlow(context.Background(), f.doc.ID, []StepInput{
		{Order: 1, ApproverID: f.alice.ID},
		{Order: 2, ApproverID: f.bob.ID},
		{Order: 3, ApproverID: f.carol.ID},
	})
	require.NoError(t, err)
	return flow
}

func (f *validationFixture) reloadDoc(t *testing.T) *models.Document {
	t.Helper()
	var doc models.Document
	require.NoError(t, f.db.First(&doc, "id = ?", f.doc.ID).Error)
	return &doc
}

func (f *validationFixture) stepStatuses(t *testing.T, flowID uuid.UUID) map[int]models.StepStatus {
	t.Helper()
	var steps []models.ValidationStep
	require.NoError(t, f.db.Where("validation_flow_id = ?", flowID).Find(&steps).Error)
	out := make(map[int]models.StepStatus, len(steps))
	for _, st := range steps {
		out[st.Order] = st.Status
	}
	return out
}

func (f *validationFixture) actionCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.ValidationAction{}).Where("document_id = ?", f.doc.ID).Count(&n).Error)
	return n
}

func assertErrCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestValidationService_CreateFlow_EmptySteps(t *testing.T) {
	f := setupValidationTest(t)
	_, err := f.svc.CreateFlow(context.Background(), f.doc.ID, nil)
	assertErrCode(t, err, "EMPTY_STEPS")
}

func TestValidationService_CreateFlow_DuplicateOrder(t *testing.T) {
	f := setupValidationTest(t)
	_, err := f.svc.CreateFlow(context.Background(), f.doc.ID, []StepInput{
		{Order: 1, ApproverID: f.alice.ID},
		{Order: 1, ApproverID: f.bob.ID},
	})
	assertErrCode(t, err, "DUPLICATE_ORDER")
}

func TestValidationService_CreateFlow_CrossTenantApprover(t *testing.T) {
	f := setupValidationTest(t)
	outsider := newTestUser(t, f.db, f.other.ID, "eve@rival.test", models.UserRoleApprover)

	_, err := f.svc.CreateFlow(context.Background(), f.doc.ID, []StepInput{
		{Order: 1, ApproverID: f.alice.ID},
		{Order: 2, ApproverID: outsider.ID},
	})
	assertErrCode(t, err, "CROSS_TENANT_APPROVER")

	// Nothing may be persisted when creation fails.
	var flows, steps int64
	require.NoError(t, f.db.Model(&models.ValidationFlow{}).Count(&flows).Error)
	require.NoError(t, f.db.Model(&models.ValidationStep{}).Count(&steps).Error)
	assert.Zero(t, flows)
	assert.Zero(t, steps)
	assert.Nil(t, f.reloadDoc(t).ValidationStatus)
}

func TestValidationService_CreateFlow_Success(t *testing.T) {
	f := setupValidationTest(t)
	flow := f.standardFlow(t)

	assert.True(t, flow.Active)
	assert.Len(t, flow.Steps, 3)

	doc := f.reloadDoc(t)
	require.NotNil(t, doc.ValidationStatus)
	assert.Equal(t, models.ValidationStatusPending, *doc.ValidationStatus)

	_, err := f.svc.CreateFlow(context.Background(), f.doc.ID, []StepInput{
		{Order: 1, ApproverID: f.alice.ID},
	})
	assertErrCode(t, err, "FLOW_EXISTS")
}

func TestValidationService_CreateFlow_DocumentNotFound(t *testing.T) {
	f := setupValidationTest(t)
	_, err := f.svc.CreateFlow(context.Background(), uuid.New(), []StepInput{
		{Order: 1, ApproverID: f.alice.ID},
	})
	assertErrCode(t, err, "NOT_FOUND")
}

func TestValidationService_Approve_HierarchyAutoApprovesLowerSteps(t *testing.T) {
	f := setupValidationTest(t)
	flow := f.standardFlow(t)
	ctx := context.Background()

	// Bob holds order 2: approving auto-approves Alice's order-1 step but
	// leaves Carol's order-3 step pending, so the document stays pending.
	action, err := f.svc.Approve(ctx, f.doc.ID, f.bob.ID, "looks fine")
	require.NoError(t, err)
	assert.Equal(t, models.ActionApprove, action.Action)
	assert.Equal(t, f.bob.ID, action.ActorID)

	statuses := f.stepStatuses(t, flow.ID)
	assert.Equal(t, models.StepStatusApproved, statuses[1])
	assert.Equal(t, models.StepStatusApproved, statuses[2])
	assert.Equal(t, models.StepStatusPending, statuses[3])

	doc := f.reloadDoc(t)
	assert.Equal(t, models.ValidationStatusPending, *doc.ValidationStatus)

	// Only Bob's explicit action is logged, not the auto-approval.
	assert.EqualValues(t, 1, f.actionCount(t))

	// Carol approving the top step completes the flow.
	_, err = f.svc.Approve(ctx, f.doc.ID, f.carol.ID, "final sign-off")
	require.NoError(t, err)

	statuses = f.stepStatuses(t, flow.ID)
	assert.Equal(t, models.StepStatusApproved, statuses[3])
	assert.Equal(t, models.ValidationStatusApproved, *f.reloadDoc(t).ValidationStatus)
	assert.EqualValues(t, 2, f.actionCount(t))
}

func TestValidationService_Approve_TopDownSingleAction(t *testing.T) {
	f := setupValidationTest(t)
	flow := f.standardFlow(t)

	// The highest authority approving first short-circuits the whole flow.
	_, err := f.svc.Approve(context.Background(), f.doc.ID, f.carol.ID, "")
	require.NoError(t, err)

	statuses := f.stepStatuses(t, flow.ID)
	assert.Equal(t, models.StepStatusApproved, statuses[1])
	assert.Equal(t, models.StepStatusApproved, statuses[2])
	assert.Equal(t, models.StepStatusApproved, statuses[3])
	assert.Equal(t, models.ValidationStatusApproved, *f.reloadDoc(t).ValidationStatus)
	assert.EqualValues(t, 1, f.actionCount(t))
}

func TestValidationService_Approve_BottomUp(t *testing.T) {
	f := setupValidationTest(t)
	flow := f.standardFlow(t)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.doc.ID, f.alice.ID, "")
	require.NoError(t, err)
	statuses := f.stepStatuses(t, flow.ID)
	assert.Equal(t, models.StepStatusApproved, statuses[1])
	assert.Equal(t, models.StepStatusPending, statuses[2])
	assert.Equal(t, models.StepStatusPending, statuses[3])
	assert.Equal(t, models.ValidationStatusPending, *f.reloadDoc(t).ValidationStatus)

	_, err = f.svc.Approve(ctx, f.doc.ID, f.bob.ID, "")
	require.NoError(t, err)
	statuses = f.stepStatuses(t, flow.ID)
	assert.Equal(t, models.StepStatusApproved, statuses[2])
	assert.Equal(t, models.StepStatusPending, statuses[3])
	assert.Equal(t, models.ValidationStatusPending, *f.reloadDoc(t).ValidationStatus)

	_, err = f.svc.Approve(ctx, f.doc.ID, f.carol.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ValidationStatusApproved, *f.reloadDoc(t).ValidationStatus)
	assert.EqualValues(t, 3, f.actionCount(t))
}

func TestValidationService_Approve_Idempotence(t *testing.T) {
	f := setupValidationTest(t)
	f.standardFlow(t)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.doc.ID, f.alice.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.doc.ID, f.alice.ID, "")
	assertErrCode(t, err, "STEP_ALREADY_APPROVED")
	assert.EqualValues(t, 1, f.actionCount(t), "retry must not create a duplicate audit action")
}

func TestValidationService_Approve_Preconditions(t *testing.T) {
	f := setupValidationTest(t)
	ctx := context.Background()

	t.Run("member cannot approve", func(t *testing.T) {
		_, err := f.svc.Approve(ctx, f.doc.ID, f.mallory.ID, "")
		assertErrCode(t, err, "NOT_AUTHORIZED")
	})

	t.Run("inactive approver cannot approve", func(t *testing.T) {
		frozen := newTestUser(t, f.db, f.company.ID, "frozen@acme.test", models.UserRoleApprover)
		require.NoError(t, f.db.Model(frozen).Update("is_active", false).Error)
		_, err := f.svc.Approve(ctx, f.doc.ID, frozen.ID, "")
		assertErrCode(t, err, "NOT_AUTHORIZED")
	})

	t.Run("no flow", func(t *testing.T) {
		_, err := f.svc.Approve(ctx, f.doc.ID, f.alice.ID, "")
		assertErrCode(t, err, "NO_ACTIVE_FLOW")
	})

	f.standardFlow(t)

	t.Run("not a step approver", func(t *testing.T) {
		bystander := newTestUser(t, f.db, f.company.ID, "dave@acme.test", models.UserRoleApprover)
		_, err := f.svc.Approve(ctx, f.doc.ID, bystander.ID, "")
		assertErrCode(t, err, "NOT_A_STEP_APPROVER")
	})

	t.Run("already approved document", func(t *testing.T) {
		_, err := f.svc.Approve(ctx, f.doc.ID, f.carol.ID, "")
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, f.doc.ID, f.bob.ID, "")
		assertErrCode(t, err, "ALREADY_APPROVED")
	})
}

func TestValidationService_Reject_IsTerminal(t *testing.T) {
	f := setupValidationTest(t)
	flow := f.standardFlow(t)
	ctx := context.Background()

	action, err := f.svc.Reject(ctx, f.doc.ID, f.bob.ID, "missing signatures")
	require.NoError(t, err)
	assert.Equal(t, models.ActionReject, action.Action)
	assert.Equal(t, "missing signatures", action.Reason)

	assert.Equal(t, models.ValidationStatusRejected, *f.reloadDoc(t).ValidationStatus)

	var reloaded models.ValidationFlow
	require.NoError(t, f.db.First(&reloaded, "id = ?", flow.ID).Error)
	assert.False(t, reloaded.Active)

	// Other steps stay in their prior status; they are evidence of
	// "never reached", not auto-rejected.
	statuses := f.stepStatuses(t, flow.ID)
	assert.Equal(t, models.StepStatusPending, statuses[1])
	assert.Equal(t, models.StepStatusRejected, statuses[2])
	assert.Equal(t, models.StepStatusPending, statuses[3])

	// No further approvals are honored.
	_, err = f.svc.Approve(ctx, f.doc.ID, f.carol.ID, "")
	assertErrCode(t, err, "FLOW_INACTIVE")

	_, err = f.svc.Reject(ctx, f.doc.ID, f.alice.ID, "")
	assertErrCode(t, err, "FLOW_INACTIVE")

	assert.EqualValues(t, 1, f.actionCount(t))
}

func TestValidationService_Reject_AfterFullApproval(t *testing.T) {
	f := setupValidationTest(t)
	f.standardFlow(t)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.doc.ID, f.carol.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, f.doc.ID, f.alice.ID, "too late")
	assertErrCode(t, err, "ALREADY_APPROVED")
}

func TestValidationService_GetStatus(t *testing.T) {
	f := setupValidationTest(t)
	ctx := context.Background()

	t.Run("no flow", func(t *testing.T) {
		status, err := f.svc.GetStatus(ctx, f.doc.ID)
		require.NoError(t, err)
		assert.False(t, status.HasValidation)
		assert.Nil(t, status.Status)
		assert.Empty(t, status.Steps)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := f.svc.GetStatus(ctx, uuid.New())
		assertErrCode(t, err, "NOT_FOUND")
	})

	f.standardFlow(t)

	t.Run("pending flow", func(t *testing.T) {
		status, err := f.svc.GetStatus(ctx, f.doc.ID)
		require.NoError(t, err)
		assert.True(t, status.HasValidation)
		assert.True(t, status.IsActive)
		assert.False(t, status.IsCompleted)
		assert.False(t, status.IsRejected)
		require.Len(t, status.Steps, 3)
		// Steps come back ordered by hierarchy.
		assert.Equal(t, 1, status.Steps[0].Order)
		assert.Equal(t, 3, status.Steps[2].Order)
		assert.Equal(t, f.alice.Email, status.Steps[0].ApproverEmail)
	})

	t.Run("completed flow", func(t *testing.T) {
		_, err := f.svc.Approve(ctx, f.doc.ID, f.carol.ID, "")
		require.NoError(t, err)

		status, err := f.svc.GetStatus(ctx, f.doc.ID)
		require.NoError(t, err)
		assert.True(t, status.IsCompleted)
		assert.False(t, status.IsRejected)
		assert.True(t, status.IsActive)
		require.NotNil(t, status.Status)
		assert.Equal(t, models.ValidationStatusApproved, *status.Status)
	})
}

func TestValidationService_GetStatus_Rejected(t *testing.T) {
	f := setupValidationTest(t)
	f.standardFlow(t)
	ctx := context.Background()

	_, err := f.svc.Reject(ctx, f.doc.ID, f.alice.ID, "illegible scan")
	require.NoError(t, err)

	status, err := f.svc.GetStatus(ctx, f.doc.ID)
	require.NoError(t, err)
	assert.True(t, status.IsRejected)
	assert.False(t, status.IsCompleted)
	assert.False(t, status.IsActive)
}

func TestValidationService_ListPendingApprovals(t *testing.T) {
	f := setupValidationTest(t)
	f.standardFlow(t)
	ctx := context.Background()

	pending, err := f.svc.ListPendingApprovals(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.doc.ID, pending[0].ID)

	// Bob approving clears his queue and (via auto-approval) Alice's too,
	// while Carol still has the top step pending.
	_, err = f.svc.Approve(ctx, f.doc.ID, f.bob.ID, "")
	require.NoError(t, err)

	pending, err = f.svc.ListPendingApprovals(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = f.svc.ListPendingApprovals(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = f.svc.ListPendingApprovals(ctx, f.carol.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestValidationService_ListPendingApprovals_ScopedToCompany(t *testing.T) {
	f := setupValidationTest(t)
	f.standardFlow(t)

	outsider := newTestUser(t, f.db, f.other.ID, "eve@rival.test", models.UserRoleApprover)
	pending, err := f.svc.ListPendingApprovals(context.Background(), outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestValidationService_GetApprovalStats(t *testing.T) {
	f := setupValidationTest(t)
	f.standardFlow(t)
	ctx := context.Background()

	doc2 := newTestDocument(t, f.db, f.company.ID, f.mallory.ID, "invoice.pdf")
	_, err := f.svc.CreateFlow(ctx, doc2.ID, []StepInput{
		{Order: 1, ApproverID: f.bob.ID},
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.doc.ID, f.bob.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, doc2.ID, f.bob.ID, "wrong entity")
	require.NoError(t, err)

	stats, err := f.svc.GetApprovalStats(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Approved)
	assert.EqualValues(t, 1, stats.Rejected)
	assert.EqualValues(t, 0, stats.Pending)
	assert.EqualValues(t, 2, stats.TotalActions)

	stats, err = f.svc.GetApprovalStats(ctx, f.carol.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalActions)
	assert.EqualValues(t, 1, stats.Pending)
}

func TestValidationService_ListActions(t *testing.T) {
	f := setupValidationTest(t)
	f.standardFlow(t)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.doc.ID, f.alice.ID, "first gate")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.doc.ID, f.carol.ID, "final gate")
	require.NoError(t, err)

	actions, err := f.svc.ListActions(ctx, f.doc.ID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, f.alice.ID, actions[0].ActorID)
	assert.Equal(t, "first gate", actions[0].Reason)
	assert.Equal(t, f.carol.ID, actions[1].ActorID)
}
