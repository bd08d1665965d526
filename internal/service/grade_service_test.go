package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

type gradeRepoFake struct {
	stored []models.Grade
}

func (f *gradeRepoFake) Upsert(ctx context.Context, grade *models.Grade) error {
	grade.ID = "g-1"
	f.stored = append(f.stored, *grade)
	return nil
}

func newGradeFixture() (*GradeService, *gradeRepoFake, termGetter) {
	repo := &gradeRepoFake{}
	closed := models.Term{ID: "1", Number: 1, DeclaredState: "cerrado"}
	inactive := models.Term{ID: "3", Number: 3}
	terms := termGetter{"1": closed, "2": activeTerm2, "3": inactive}
	roster := &rosterFake{entries: []models.RosterEntry{{EnrollmentID: "m-1", SectionID: "12"}}}
	return NewGradeService(repo, terms, roster, scopeStub{}, nil, zap.NewNop()), repo, terms
}

func TestGradeServiceRecord(t *testing.T) {
	svc, repo, _ := newGradeFixture()
	comment := " buen trabajo "

	grade, err := svc.Record(context.Background(), RecordGradeRequest{
		SectionID: "12", EnrollmentID: "m-1", SubjectID: "mat", TermID: "2", Score: floatPtr(17.5), Comment: &comment,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "g-1", grade.ID)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, 17.5, repo.stored[0].Score)
	assert.Equal(t, "buen trabajo", *repo.stored[0].Comment)
}

func TestGradeServiceRecordIsGatedByTerm(t *testing.T) {
	svc, repo, _ := newGradeFixture()
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordGradeRequest{SectionID: "12", EnrollmentID: "m-1", SubjectID: "mat", TermID: "1", Score: floatPtr(12)}, nil)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrTermClosed.Code))

	_, err = svc.Record(ctx, RecordGradeRequest{SectionID: "12", EnrollmentID: "m-1", SubjectID: "mat", TermID: "3", Score: floatPtr(12)}, nil)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrPreconditionFailed.Code))
	assert.Empty(t, repo.stored)
}

func TestGradeServiceRecordValidation(t *testing.T) {
	svc, _, _ := newGradeFixture()
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordGradeRequest{SectionID: "12", EnrollmentID: "m-1", SubjectID: "mat", TermID: "2", Score: floatPtr(21)}, nil)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Record(ctx, RecordGradeRequest{SectionID: "12", EnrollmentID: "m-1", SubjectID: "mat", TermID: "2"}, nil)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Record(ctx, RecordGradeRequest{SectionID: "12", EnrollmentID: "m-9", SubjectID: "mat", TermID: "2", Score: floatPtr(10)}, nil)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}
