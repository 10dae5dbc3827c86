package service

import (
	"io"
	"sync"
	"testing"

	"ireporter/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReportService() (*ReportService, *fakeReportStore, *fakeNotifier) {
	store := newFakeReportStore()
	notifier := &fakeNotifier{}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewReportService(store, notifier, log), store, notifier
}

func validCreateInput() CreateReportInput {
	return CreateReportInput{
		Title:       "Collapsed bridge",
		Description: "The bridge on route 4 collapsed last week",
		ReportType:  domain.ReportTypeIntervention,
		Location:    "Route 4, Ibadan",
	}
}

func TestParseCoordinates(t *testing.T) {
	lat, lng := ParseCoordinates("6.5,3.4")
	require.NotNil(t, lat)
	require.NotNil(t, lng)
	assert.Equal(t, 6.5, *lat)
	assert.Equal(t, 3.4, *lng)

	lat, lng = ParseCoordinates(" -1.95 , 30.06 ")
	require.NotNil(t, lat)
	assert.Equal(t, -1.95, *lat)
	assert.Equal(t, 30.06, *lng)

	for _, malformed := range []string{"", "abc", "6.5", "6.5,xyz", "6.5,3.4,9"} {
		lat, lng = ParseCoordinates(malformed)
		assert.Nil(t, lat, "input %q", malformed)
		assert.Nil(t, lng, "input %q", malformed)
	}
}

func TestCreateReport_InitialHistoryEntry(t *testing.T) {
	svc, _, notifier := newTestReportService()

	report, err := svc.Create(7, validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, report.Status)
	require.Len(t, report.StatusHistory, 1)
	entry := report.StatusHistory[0]
	assert.Equal(t, domain.StatusPending, entry.Status)
	assert.Equal(t, "Report submitted", entry.Note)
	assert.Equal(t, uint(7), entry.ChangedBy)
	require.Len(t, notifier.created, 1)
}

func TestCreateReport_CoordinateParsing(t *testing.T) {
	svc, _, _ := newTestReportService()

	in := validCreateInput()
	in.Coordinates = "6.5,3.4"
	report, err := svc.Create(1, in)
	require.NoError(t, err)
	require.NotNil(t, report.Latitude)
	assert.Equal(t, 6.5, *report.Latitude)
	assert.Equal(t, 3.4, *report.Longitude)

	// Malformed coordinates are dropped to null, never an error.
	in.Coordinates = "abc"
	report, err = svc.Create(1, in)
	require.NoError(t, err)
	assert.Nil(t, report.Latitude)
	assert.Nil(t, report.Longitude)
}

func TestCreateReport_Validation(t *testing.T) {
	svc, store, _ := newTestReportService()

	in := validCreateInput()
	in.Title = "  "
	_, err := svc.Create(1, in)
	assert.ErrorIs(t, err, ErrMissingFields)

	in = validCreateInput()
	in.ReportType = "complaint"
	_, err = svc.Create(1, in)
	assert.ErrorIs(t, err, ErrInvalidReportType)

	assert.Empty(t, store.reports)
}

func TestCreateReport_EvidenceTypeFromMIME(t *testing.T) {
	svc, _, _ := newTestReportService()

	in := validCreateInput()
	in.Attachments = []Attachment{
		{FileName: "a.jpg", FilePath: "/uploads/a.jpg", ContentType: "image/jpeg"},
		{FileName: "b.mp4", FilePath: "/uploads/b.mp4", ContentType: "video/mp4"},
		{FileName: "c.bin", FilePath: "/uploads/c.bin", ContentType: "application/octet-stream"},
	}
	report, err := svc.Create(1, in)
	require.NoError(t, err)
	require.Len(t, report.Evidence, 3)
	assert.Equal(t, domain.EvidenceTypeImage, report.Evidence[0].FileType)
	assert.Equal(t, domain.EvidenceTypeVideo, report.Evidence[1].FileType)
	assert.Equal(t, domain.EvidenceTypeVideo, report.Evidence[2].FileType)
}

func TestListReports_ScopedToOwner(t *testing.T) {
	svc, _, _ := newTestReportService()
	_, err := svc.Create(1, validCreateInput())
	require.NoError(t, err)
	_, err = svc.Create(2, validCreateInput())
	require.NoError(t, err)
	_, err = svc.Create(2, validCreateInput())
	require.NoError(t, err)

	reports, pagination, err := svc.List(2, false, ListOptions{})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, uint(2), r.UserID)
	}
	assert.Equal(t, int64(2), pagination.Total)

	// Admin sees everything.
	reports, pagination, err = svc.List(99, true, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, reports, 3)
	assert.Equal(t, int64(3), pagination.Total)
}

func TestGetReport_AccessControl(t *testing.T) {
	svc, _, _ := newTestReportService()
	report, err := svc.Create(1, validCreateInput())
	require.NoError(t, err)

	_, err = svc.Get(2, false, report.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Get(2, true, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)

	_, err = svc.Get(1, false, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReport_OwnerAndPendingOnly(t *testing.T) {
	svc, store, _ := newTestReportService()
	report, err := svc.Create(1, validCreateInput())
	require.NoError(t, err)

	title := "Updated title"
	updated, err := svc.Update(1, report.ID, UpdateReportInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Updated title", updated.Title)

	// Non-owner gets not-found, not forbidden.
	_, err = svc.Update(2, report.ID, UpdateReportInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	// Once the report leaves pending, even the owner cannot edit it.
	_, err = store.AppendTransition(report.ID, domain.StatusUnderInvestigation, "looking into it", 9)
	require.NoError(t, err)
	_, err = svc.Update(1, report.ID, UpdateReportInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReport_EmptyBodyStillGated(t *testing.T) {
	svc, store, _ := newTestReportService()
	report, err := svc.Create(1, validCreateInput())
	require.NoError(t, err)

	// An update with no fields is a no-op for the owner of a pending report.
	updated, err := svc.Update(1, report.ID, UpdateReportInput{})
	require.NoError(t, err)
	assert.Equal(t, report.ID, updated.ID)

	// A non-owner still gets not-found, never forbidden.
	_, err = svc.Update(2, report.ID, UpdateReportInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	// And a non-pending report is not editable even with nothing to change.
	_, err = store.AppendTransition(report.ID, domain.StatusResolved, "done", 9)
	require.NoError(t, err)
	_, err = svc.Update(1, report.ID, UpdateReportInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(1, 999, UpdateReportInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReport_ReparsesCoordinates(t *testing.T) {
	svc, _, _ := newTestReportService()
	in := validCreateInput()
	in.Coordinates = "6.5,3.4"
	report, err := svc.Create(1, in)
	require.NoError(t, err)

	coords := "not-coordinates"
	updated, err := svc.Update(1, report.ID, UpdateReportInput{Coordinates: &coords})
	require.NoError(t, err)
	assert.Nil(t, updated.Latitude)
	assert.Nil(t, updated.Longitude)
}

func TestDeleteReport(t *testing.T) {
	svc, store, _ := newTestReportService()
	mine, err := svc.Create(1, validCreateInput())
	require.NoError(t, err)
	theirs, err := svc.Create(2, validCreateInput())
	require.NoError(t, err)

	// Non-owner delete masks as not-found.
	err = svc.Delete(1, false, theirs.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(1, false, mine.ID))
	_, err = store.GetByID(mine.ID)
	assert.Error(t, err)
	assert.Empty(t, store.history[mine.ID])

	// Admin may delete anyone's report.
	require.NoError(t, svc.Delete(99, true, theirs.ID))

	err = svc.Delete(99, true, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeStatus(t *testing.T) {
	svc, store, notifier := newTestReportService()
	report, err := svc.Create(1, validCreateInput())
	require.NoError(t, err)

	_, err = svc.ChangeStatus(9, report.ID, "archived", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	updated, err := svc.ChangeStatus(9, report.ID, domain.StatusResolved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, updated.Status)

	// Ledger and live status always agree; the newest entry carries the
	// defaulted note and the acting admin.
	entries := store.historyFor(report.ID, true)
	require.Len(t, entries, 2)
	assert.Equal(t, updated.Status, entries[0].Status)
	assert.Equal(t, "Status changed to resolved", entries[0].Note)
	assert.Equal(t, uint(9), entries[0].ChangedBy)

	require.Len(t, notifier.statusChanged, 1)
	assert.Equal(t, report.ID, notifier.statusChanged[0].ID)

	_, err = svc.ChangeStatus(9, 999, domain.StatusRejected, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeStatus_AnyTransitionAllowed(t *testing.T) {
	svc, store, _ := newTestReportService()
	report, err := svc.Create(1, validCreateInput())
	require.NoError(t, err)

	// The transition graph is complete: backward and lateral moves are fine.
	for _, status := range []string{
		domain.StatusResolved,
		domain.StatusPending,
		domain.StatusRejected,
		domain.StatusUnderInvestigation,
	} {
		updated, err := svc.ChangeStatus(9, report.ID, status, "")
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
	entries := store.historyFor(report.ID, false)
	assert.Len(t, entries, 5)
}

func TestChangeStatus_ConcurrentTransitions(t *testing.T) {
	store := newFakeReportStore()
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewReportService(store, nil, log)

	report, err := svc.Create(1, validCreateInput())
	require.NoError(t, err)

	// Racing transitions may interleave in any order, but no history entry
	// is ever lost and the live status always matches the newest entry.
	statuses := []string{
		domain.StatusUnderInvestigation,
		domain.StatusResolved,
		domain.StatusRejected,
		domain.StatusPending,
	}
	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ChangeStatus(9, report.ID, statuses[i%len(statuses)], "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.GetByID(report.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, workers+1)
	newest := got.StatusHistory[len(got.StatusHistory)-1]
	assert.Equal(t, newest.Status, got.Status)
}
