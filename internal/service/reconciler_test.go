package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func statusPtr(s models.EnrollmentStatus) *models.EnrollmentStatus { return &s }

func viewer(role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-" + string(role), Role: role}
}

func classOffering(price *float64, capacity *int, count int, active bool) models.Offering {
	return models.Offering{Kind: models.OfferingClass, ID: "c1", Title: "Robotics", Price: price, Capacity: capacity, CurrentCount: count, IsActive: active}
}

func findAction(view dto.EnrollmentView, kind dto.ActionKind) *dto.Action {
	for i := range view.Actions {
		if view.Actions[i].Kind == kind {
			return &view.Actions[i]
		}
	}
	return nil
}

func TestDeriveEnrollmentViewAnonymous(t *testing.T) {
	view := DeriveEnrollmentView(ReconcileInput{
		Offering:     classOffering(floatPtr(10), nil, 0, true),
		CallbackPath: "/classes/c1",
	})
	assert.Equal(t, dto.StateAnonymous, view.State)
	assert.False(t, view.EnrollButton.Visible)
	signIn := findAction(view, dto.ActionSignIn)
	require.NotNil(t, signIn)
	assert.Equal(t, "/login?callbackUrl=%2Fclasses%2Fc1", signIn.Href)
}

func TestDeriveEnrollmentViewDecisionTable(t *testing.T) {
	cases := []struct {
		name     string
		role     models.UserRole
		offering models.Offering
		status   *models.EnrollmentStatus
		state    dto.EnrollmentState
		actions  []dto.ActionKind
	}{
		{"confirmed parent", models.RoleParent, classOffering(nil, nil, 0, true), statusPtr(models.EnrollmentStatusConfirmed), dto.StateEnrolled, []dto.ActionKind{dto.ActionViewMaterials, dto.ActionLeaveClass}},
		{"test student", models.RoleStudent, classOffering(nil, nil, 0, true), statusPtr(models.EnrollmentStatusTest), dto.StateEnrolled, []dto.ActionKind{dto.ActionViewMaterials}},
		{"pending paid", models.RoleParent, classOffering(floatPtr(50), nil, 0, true), statusPtr(models.EnrollmentStatusPending), dto.StatePaymentRequired, []dto.ActionKind{dto.ActionCompletePayment}},
		{"pending free", models.RoleParent, classOffering(floatPtr(0), nil, 0, true), statusPtr(models.EnrollmentStatusPending), dto.StatePending, nil},
		{"waitlisted parent", models.RoleParent, classOffering(nil, intPtr(1), 1, true), statusPtr(models.EnrollmentStatusWaitlisted), dto.StateWaitlisted, []dto.ActionKind{dto.ActionLeaveClass}},
		{"rejected", models.RoleStudent, classOffering(nil, nil, 0, true), statusPtr(models.EnrollmentStatusRejected), dto.StateRejected, nil},
		{"student without record", models.RoleStudent, classOffering(floatPtr(5), nil, 0, true), nil, dto.StateNotEnrolled, []dto.ActionKind{dto.ActionAskParent}},
		{"parent full", models.RoleParent, classOffering(nil, intPtr(3), 3, true), nil, dto.StateFull, []dto.ActionKind{dto.ActionEnroll}},
		{"parent inactive", models.RoleParent, classOffering(nil, nil, 0, false), nil, dto.StateInactive, []dto.ActionKind{dto.ActionEnroll}},
		{"parent paid", models.RoleParent, classOffering(floatPtr(25), nil, 0, true), nil, dto.StateEnrollablePaid, []dto.ActionKind{dto.ActionEnroll}},
		{"parent free", models.RoleParent, classOffering(nil, nil, 0, true), nil, dto.StateEnrollableFree, []dto.ActionKind{dto.ActionEnroll}},
		{"mentor", models.RoleMentor, classOffering(nil, nil, 0, true), nil, dto.StateNotEligible, nil},
		{"unknown role", models.UserRole("JANITOR"), classOffering(nil, nil, 0, true), nil, dto.StateNotEligible, nil},
		{"cancelled is no record", models.RoleParent, classOffering(nil, nil, 0, true), statusPtr(models.EnrollmentStatusCancelled), dto.StateEnrollableFree, []dto.ActionKind{dto.ActionEnroll}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := DeriveEnrollmentView(ReconcileInput{Viewer: viewer(tc.role), Offering: tc.offering, Status: tc.status, RecordID: "e1"})
			assert.Equal(t, tc.state, view.State)
			kinds := make([]dto.ActionKind, 0, len(view.Actions))
			for _, a := range view.Actions {
				kinds = append(kinds, a.Kind)
			}
			if len(tc.actions) == 0 {
				assert.Empty(t, kinds)
				return
			}
			assert.Equal(t, tc.actions, kinds)
		})
	}
}

func TestDeriveEnrollmentViewPaidRoutesThroughCheckout(t *testing.T) {
	paid := DeriveEnrollmentView(ReconcileInput{Viewer: viewer(models.RoleParent), Offering: classOffering(floatPtr(99.99), nil, 0, true)})
	enroll := findAction(paid, dto.ActionEnroll)
	require.NotNil(t, enroll)
	assert.Equal(t, dto.MethodCheckout, enroll.Method)
	assert.Equal(t, "/api/create-checkout-session", enroll.Href)
	assert.Equal(t, "Enroll Now - $99.99", paid.EnrollButton.Label)

	for _, price := range []*float64{nil, floatPtr(0)} {
		free := DeriveEnrollmentView(ReconcileInput{Viewer: viewer(models.RoleParent), Offering: classOffering(price, nil, 0, true)})
		enroll := findAction(free, dto.ActionEnroll)
		require.NotNil(t, enroll)
		assert.Equal(t, dto.MethodPost, enroll.Method)
		assert.Equal(t, "/api/enrollments", enroll.Href)
		assert.Equal(t, "Enroll Now - Free", free.EnrollButton.Label)
	}
}

func TestDeriveEnrollmentViewOnlyParentsSeeEnrollNow(t *testing.T) {
	offerings := []models.Offering{
		classOffering(floatPtr(20), nil, 0, true),
		classOffering(nil, nil, 0, true),
	}
	for _, role := range append(models.AllRoles, models.UserRole("UNKNOWN")) {
		for _, offering := range offerings {
			view := DeriveEnrollmentView(ReconcileInput{Viewer: viewer(role), Offering: offering})
			if role == models.RoleParent {
				assert.True(t, view.EnrollButton.Visible)
				continue
			}
			assert.False(t, view.EnrollButton.Visible, "role %s", role)
			assert.Nil(t, findAction(view, dto.ActionEnroll), "role %s", role)
		}
	}
}

func TestDeriveEnrollmentViewIsDeterministic(t *testing.T) {
	in := ReconcileInput{
		Viewer:                  viewer(models.RoleParent),
		Offering:                classOffering(floatPtr(12.5), intPtr(10), 4, true),
		CallbackPath:            "/classes/c1",
		TestRegistrationEnabled: true,
	}
	assert.Equal(t, DeriveEnrollmentView(in), DeriveEnrollmentView(in))
}

func TestDeriveEnrollmentViewFullClassDisabledForEveryone(t *testing.T) {
	offering := classOffering(floatPtr(99.99), intPtr(20), 20, true)
	statuses := []*models.EnrollmentStatus{
		nil,
		statusPtr(models.EnrollmentStatusPending),
		statusPtr(models.EnrollmentStatusConfirmed),
		statusPtr(models.EnrollmentStatusWaitlisted),
	}
	viewers := []*models.JWTClaims{nil}
	for _, role := range models.AllRoles {
		viewers = append(viewers, viewer(role))
	}
	for _, v := range viewers {
		for _, status := range statuses {
			view := DeriveEnrollmentView(ReconcileInput{Viewer: v, Offering: offering, Status: status, TestRegistrationEnabled: true})
			assert.False(t, view.EnrollButton.Enabled)
			assert.Equal(t, "Class Full", view.EnrollButton.Label)
			assert.False(t, view.Allows(dto.ActionEnroll))
		}
	}
}

func TestDeriveEnrollmentViewWaitlistOpen(t *testing.T) {
	offering := models.Offering{Kind: models.OfferingEvent, ID: "ev1", Capacity: intPtr(2), CurrentCount: 2, IsActive: true}
	view := DeriveEnrollmentView(ReconcileInput{Viewer: viewer(models.RoleParent), Offering: offering, WaitlistOpen: true})
	assert.Equal(t, dto.StateFull, view.State)
	assert.Equal(t, "Join Waitlist", view.EnrollButton.Label)
	enroll := findAction(view, dto.ActionEnroll)
	require.NotNil(t, enroll)
	assert.True(t, enroll.Enabled)
	assert.Equal(t, "/api/events/ev1/registrations", enroll.Href)
}

func TestDeriveEnrollmentViewTestRegistrationToggle(t *testing.T) {
	offering := classOffering(floatPtr(40), nil, 0, true)
	off := DeriveEnrollmentView(ReconcileInput{Viewer: viewer(models.RoleParent), Offering: offering})
	assert.Nil(t, findAction(off, dto.ActionTestRegister))

	on := DeriveEnrollmentView(ReconcileInput{Viewer: viewer(models.RoleParent), Offering: offering, TestRegistrationEnabled: true})
	test := findAction(on, dto.ActionTestRegister)
	require.NotNil(t, test)
	assert.Equal(t, dto.MethodPost, test.Method)
}

func TestDeriveEnrollmentViewLeaveLinks(t *testing.T) {
	view := DeriveEnrollmentView(ReconcileInput{Viewer: viewer(models.RoleParent), Offering: classOffering(nil, nil, 0, true), Status: statusPtr(models.EnrollmentStatusConfirmed), RecordID: "enr-9"})
	leave := findAction(view, dto.ActionLeaveClass)
	require.NotNil(t, leave)
	assert.Equal(t, "/api/enrollments/enr-9/leave", leave.Href)

	event := models.Offering{Kind: models.OfferingEvent, ID: "ev1", IsActive: true}
	view = DeriveEnrollmentView(ReconcileInput{Viewer: viewer(models.RoleParent), Offering: event, Status: statusPtr(models.EnrollmentStatusConfirmed), RecordID: "reg-1"})
	leave = findAction(view, dto.ActionLeaveClass)
	require.NotNil(t, leave)
	assert.Equal(t, "/api/registrations/reg-1/cancel", leave.Href)
	assert.Equal(t, "/events/ev1", findAction(view, dto.ActionViewMaterials).Href)
}
