package project_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
)

func TestValidateTransition_AllPairs(t *testing.T) {
	allowed := map[project.Status][]project.Status{
		project.StatusPending:            {project.StatusEstimateReady, project.StatusCancelled},
		project.StatusEstimateReady:      {project.StatusApproved, project.StatusCancelled},
		project.StatusApproved:           {project.StatusInConstruction, project.StatusChangeOrderPending, project.StatusCancelled},
		project.StatusInConstruction:     {project.StatusChangeOrderPending, project.StatusCompleted, project.StatusCancelled},
		project.StatusChangeOrderPending: {project.StatusInConstruction, project.StatusCompleted, project.StatusCancelled},
	}

	for _, from := range project.Statuses() {
		for _, to := range project.Statuses() {
			err := project.ValidateTransition(from, to)
			switch {
			case from == to:
				require.NoError(t, err, "%s -> %s", from, to)
			case contains(allowed[from], to):
				require.NoError(t, err, "%s -> %s", from, to)
				require.True(t, project.CanTransition(from, to))
			default:
				require.ErrorIs(t, err, project.ErrInvalidTransition, "%s -> %s", from, to)
				var te *project.TransitionError
				require.True(t, errors.As(err, &te))
				require.Equal(t, from, te.From)
				require.Equal(t, to, te.To)
			}
		}
	}
}

func TestValidateTransition_UnknownStatus(t *testing.T) {
	err := project.ValidateTransition(project.StatusPending, project.Status("ARCHIVED"))
	require.ErrorIs(t, err, project.ErrInvalidStatus)
	require.NotErrorIs(t, err, project.ErrInvalidTransition)
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range project.Statuses() {
		terminal := s == project.StatusCompleted || s == project.StatusCancelled
		require.Equal(t, terminal, s.Terminal(), s)
		require.Equal(t, terminal, len(project.AllowedTransitions(s)) == 0, s)
		if !terminal {
			require.True(t, project.CanTransition(s, project.StatusCancelled), s)
		}
	}
}

func TestTransitionError_Message(t *testing.T) {
	err := project.ValidateTransition(project.StatusPending, project.StatusCompleted)
	require.EqualError(t, err, "invalid project status transition from PENDING to COMPLETED")
}

func contains(list []project.Status, s project.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
