package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/types"
)

func TestCreateMission(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	col := e.addUser(t, "colonel", authz.RoleColonel, "COL")
	a := e.addUser(t, "alpha", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	mission, err := e.svc.Missions.Create(ctx, &col, CreateMissionInput{
		Title:              "Operation Nightfall",
		MissionCode:        "ON-01",
		Description:        "Night raid on the airfield",
		Participants:       []string{a.ID},
		Duration:           90,
		Outcome:            types.OutcomeSuccess,
		MeritPointsAwarded: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, col.ID, mission.CommanderID)
	assert.Equal(t, e.clock.Now(), mission.Date)

	// Mission merit points stay informational.
	assert.Zero(t, e.user(t, a.ID).MeritPoints)
	balance, err := e.svc.Merit.Balance(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, balance)

	missions, err := e.svc.Missions.List(ctx, &col)
	require.NoError(t, err)
	require.Len(t, missions, 1)
	assert.Equal(t, "Colonel Test", missions[0].CommanderName)
	assert.Equal(t, []string{ActionMissionCreated}, e.auditActions(t))
}

func TestCreateMissionValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	col := e.addUser(t, "colonel", authz.RoleColonel, "COL")
	soldier := e.addUser(t, "alpha", authz.RoleSoldier, "PV1")
	ctx := context.Background()

	base := func() CreateMissionInput {
		return CreateMissionInput{Title: "T", MissionCode: "C", Description: "D", Outcome: types.OutcomePartial}
	}
	tests := []struct {
		name   string
		mutate func(*CreateMissionInput)
	}{
		{"missing title", func(in *CreateMissionInput) { in.Title = "" }},
		{"missing code", func(in *CreateMissionInput) { in.MissionCode = " " }},
		{"missing description", func(in *CreateMissionInput) { in.Description = "" }},
		{"bad outcome", func(in *CreateMissionInput) { in.Outcome = "draw" }},
		{"negative duration", func(in *CreateMissionInput) { in.Duration = -1 }},
		{"unknown participant", func(in *CreateMissionInput) { in.Participants = []string{"ghost"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			_, err := e.svc.Missions.Create(ctx, &col, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := e.svc.Missions.Create(ctx, &soldier, base())
	assert.ErrorIs(t, err, authz.ErrForbidden)
	_, err = e.svc.Missions.List(ctx, &soldier)
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestUnits(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	adm := e.admin(t)
	gen := e.general(t)
	ctx := context.Background()

	unit, err := e.svc.Units.Create(ctx, &adm, CreateUnitInput{Name: " Military Police ", Abbreviation: "MP", CommanderID: gen.ID})
	require.NoError(t, err)
	assert.Equal(t, "Military Police", unit.Name)

	_, err = e.svc.Units.Create(ctx, &adm, CreateUnitInput{Name: "Rangers"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.svc.Units.Create(ctx, &adm, CreateUnitInput{Name: "Rangers", Abbreviation: "RGR", CommanderID: "ghost"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.svc.Units.Create(ctx, &gen, CreateUnitInput{Name: "Rangers", Abbreviation: "RGR"})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	units, err := e.svc.Units.List(ctx, &gen)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, unit.ID, units[0].ID)

	_, err = e.svc.Units.List(ctx, nil)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
	assert.Equal(t, []string{ActionUnitCreated}, e.auditActions(t))
}
