package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawdesk/internal/domain"
	"lawdesk/internal/testutil"
	"lawdesk/pkg/utils"
)

func seedLawyer(t *testing.T, s *Store, email string) *domain.Lawyer {
	t.Helper()
	l := &domain.Lawyer{ID: utils.NewID(), Name: "L " + email, Email: email, Specialization: domain.SpecOther, Role: domain.RoleLawyer}
	require.NoError(t, s.Lawyers.Create(context.Background(), l))
	return l
}

func seedCase(t *testing.T, s *Store, number string, lawyerID *string) *domain.Case {
	t.Helper()
	c := &domain.Case{ID: utils.NewID(), CaseNumber: number, Title: "T", ClientName: "C", LawyerID: lawyerID, Status: domain.StatusPending}
	require.NoError(t, s.Cases.Create(context.Background(), c))
	return c
}

func TestFindByIDNotFound(t *testing.T) {
	s := NewStore(testutil.NewDB(t))
	l, err := s.Lawyers.FindByID(context.Background(), utils.NewID())
	assert.NoError(t, err)
	assert.Nil(t, l)
}

func TestCaseCountFloor(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testutil.NewDB(t))
	l := seedLawyer(t, s, "a@x.io")

	require.NoError(t, s.Lawyers.IncCaseCount(ctx, l.ID))
	require.NoError(t, s.Lawyers.DecCaseCount(ctx, l.ID))
	require.NoError(t, s.Lawyers.DecCaseCount(ctx, l.ID))

	got, err := s.Lawyers.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.CaseCount)
}

func TestRecount(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testutil.NewDB(t))
	a := seedLawyer(t, s, "a@x.io")
	b := seedLawyer(t, s, "b@x.io")
	seedCase(t, s, "AAAA000000000001", &a.ID)
	seedCase(t, s, "AAAA000000000002", &a.ID)
	seedCase(t, s, "AAAA000000000003", &b.ID)

	n, err := s.Lawyers.RecountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, _ := s.Lawyers.FindByID(ctx, a.ID)
	assert.Equal(t, int64(2), got.CaseCount)

	cnt, err := s.Lawyers.Recount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
}

func TestHearingIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testutil.NewDB(t))
	c := seedCase(t, s, "AAAA000000000001", nil)
	h1, h2 := utils.NewID(), utils.NewID()

	err := s.Transaction(ctx, func(tx *Store) error {
		for _, h := range []string{h1, h2, h1} {
			ok, err := tx.Cases.AddHearing(ctx, c.ID, h)
			if err != nil {
				return err
			}
			assert.True(t, ok)
		}
		return nil
	})
	require.NoError(t, err)

	got, _ := s.Cases.FindByID(ctx, c.ID)
	assert.Equal(t, []string{h1, h2}, []string(got.HearingIDs))

	require.NoError(t, s.Cases.RemoveHearing(ctx, c.ID, h1))
	got, _ = s.Cases.FindByID(ctx, c.ID)
	assert.Equal(t, []string{h2}, []string(got.HearingIDs))

	ok, err := s.Cases.AddHearing(ctx, utils.NewID(), h1)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestClearLawyer(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testutil.NewDB(t))
	l := seedLawyer(t, s, "a@x.io")
	c := seedCase(t, s, "AAAA000000000001", &l.ID)

	n, err := s.Cases.ClearLawyer(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := s.Cases.FindByID(ctx, c.ID)
	assert.Nil(t, got.LawyerID)
	assert.Equal(t, domain.StatusUnassigned, got.Status)
}

func TestCaseViews(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testutil.NewDB(t))
	l := seedLawyer(t, s, "a@x.io")
	gone := utils.NewID()
	c1 := seedCase(t, s, "AAAA000000000001", &l.ID)
	c2 := seedCase(t, s, "AAAA000000000002", &gone)

	views, err := s.CaseViews(ctx, []domain.Case{*c1, *c2})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Lawyer)
	assert.Equal(t, l.Name, views[0].Lawyer.Name)
	assert.Nil(t, views[1].Lawyer)
	assert.NotNil(t, views[1].HearingIDs)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore(testutil.NewDB(t))
	err := s.Transaction(ctx, func(tx *Store) error {
		seedLawyer(t, tx, "a@x.io")
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	got, err := s.Lawyers.FindByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Nil(t, got)
}
