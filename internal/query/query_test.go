package query

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lawdesk/internal/apperr"
	"lawdesk/internal/domain"
	"lawdesk/internal/testutil"
	"lawdesk/pkg/utils"
)

func intp(v int) *int { return &v }

func TestPageDefaults(t *testing.T) {
	var p Page
	assert.Equal(t, 1, p.Number())
	assert.Equal(t, 10, p.Size())
	assert.Equal(t, 0, p.Offset())

	p = Page{Page: intp(3), PageSize: intp(20)}
	assert.Equal(t, 40, p.Offset())

	huge := math.MaxInt / 10
	p = Page{Page: &huge, PageSize: intp(500)}
	assert.Equal(t, MaxPage, p.Number())
	assert.Equal(t, MaxPageSize, p.Size())
	assert.Equal(t, (MaxPage-1)*MaxPageSize, p.Offset())
}

func TestParseTime(t *testing.T) {
	ts, dateOnly, err := ParseTime("2024-03-01")
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ts)

	ts, dateOnly, err = ParseTime("2024-03-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), ts)

	_, _, err = ParseTime("01/03/2024")
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "50!% off!_now!!", escapeLike("50% off_now!"))
}

func TestUnknownSort(t *testing.T) {
	_, err := CaseFilter{Sort: "password"}.Plan()
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = HearingFilter{EndDate: "yesterday"}.Plan()
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func seedCourts(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		c := domain.Court{ID: utils.NewID(), Name: fmt.Sprintf("Court %02d", i), Location: "City"}
		require.NoError(t, db.Create(&c).Error)
	}
}

func TestRunPagination(t *testing.T) {
	db := testutil.NewDB(t)
	seedCourts(t, db, 15)
	ctx := context.Background()

	plan, err := CourtFilter{}.Plan()
	require.NoError(t, err)
	first, err := Run[domain.Court](ctx, db, plan)
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.True(t, first.IsNext)
	assert.Equal(t, "Court 00", first.Items[0].Name)

	plan, err = CourtFilter{Page: Page{Page: intp(2)}}.Plan()
	require.NoError(t, err)
	second, err := Run[domain.Court](ctx, db, plan)
	require.NoError(t, err)
	assert.Len(t, second.Items, 5)
	assert.False(t, second.IsNext)

	plan, err = CourtFilter{Page: Page{Page: intp(3)}}.Plan()
	require.NoError(t, err)
	third, err := Run[domain.Court](ctx, db, plan)
	require.NoError(t, err)
	assert.Empty(t, third.Items)
	assert.NotNil(t, third.Items)
	assert.False(t, third.IsNext)
}

func TestRunTextSearch(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	for _, name := range []string{"High Court", "100% Court", "1000 Court", "district_court"} {
		require.NoError(t, db.Create(&domain.Court{ID: utils.NewID(), Name: name, Location: "Metro"}).Error)
	}

	find := func(q string) []string {
		plan, err := CourtFilter{Page: Page{Query: q}}.Plan()
		require.NoError(t, err)
		res, err := Run[domain.Court](ctx, db, plan)
		require.NoError(t, err)
		var names []string
		for _, c := range res.Items {
			names = append(names, c.Name)
		}
		return names
	}

	assert.Equal(t, []string{"High Court"}, find("high"))
	assert.Equal(t, []string{"100% Court"}, find("0%"))
	assert.Equal(t, []string{"district_court"}, find("t_c"))
	assert.Len(t, find("metro"), 4)
	assert.Empty(t, find("nothing"))
}

func TestRunDateRange(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	caseID := utils.NewID()
	for _, d := range []time.Time{
		time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 23, 30, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, db.Create(&domain.Hearing{ID: utils.NewID(), CaseID: caseID, Date: d}).Error)
	}

	plan, err := HearingFilter{StartDate: "2024-01-15", EndDate: "2024-01-20", Sort: "date"}.Plan()
	require.NoError(t, err)
	res, err := Run[domain.Hearing](ctx, db, plan)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 20, res.Items[0].Date.Day())

	plan, err = HearingFilter{CaseID: caseID, StartDate: "2024-01-01"}.Plan()
	require.NoError(t, err)
	res, err = Run[domain.Hearing](ctx, db, plan)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)

	// 非法 id 被忽略
	plan, err = HearingFilter{CaseID: "not-an-id"}.Plan()
	require.NoError(t, err)
	res, err = Run[domain.Hearing](ctx, db, plan)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
}

func TestRunEmptyPlan(t *testing.T) {
	db := testutil.NewDB(t)
	seedCourts(t, db, 2)
	plan, err := CourtFilter{}.Plan()
	require.NoError(t, err)
	plan.Empty = true
	res, err := Run[domain.Court](context.Background(), db, plan)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.False(t, res.IsNext)
}
