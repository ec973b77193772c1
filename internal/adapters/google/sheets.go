package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	sheets "google.golang.org/api/sheets/v4"

	"eventregistration/internal/cache"
	"eventregistration/internal/domain"
)

// SchemaVersion is written in the last column of every row so that rows
// appended under an older layout can be told apart.
const SchemaVersion = "v1"

// readyTTL is how long a verified sheet is trusted before it is checked again.
const readyTTL = 10 * time.Minute

var baseHeader = []string{
	"Timestamp", "Registration ID", "Event ID", "Event Name", "Team Name",
	"Name", "Email", "Phone", "Roll No", "Course", "Year", "College",
	"College ID", "Query",
}

var memberColumns = []string{"Name", "Email", "Phone", "Roll No", "Course", "Year", "College", "College ID"}

const (
	colTimestamp = iota
	colID
	colEventID
	colEventName
	colTeamName
	colName
	colEmail
	colPhone
	colRollNo
	colCourse
	colYear
	colCollege
	colCollegeID
	colQuery
	colFirstMember
)

// Header returns the versioned header row. Every member slot is always present.
func Header() []string {
	h := slices.Clone(baseHeader)
	for i := 1; i <= domain.MaxTeamMembers; i++ {
		for _, c := range memberColumns {
			h = append(h, fmt.Sprintf("Member %d %s", i, c))
		}
	}
	return append(h, "Schema")
}

var (
	columnCount = len(baseHeader) + domain.MaxTeamMembers*len(memberColumns) + 1
	lastColumn  = ColumnLetter(columnCount)
)

// ColumnLetter converts a 1-based column index to A1 letters (1 -> A, 27 -> AA).
func ColumnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// Row flattens reg into a fixed-width row. Unused member slots are empty strings.
func Row(reg *domain.Registration) []interface{} {
	row := make([]interface{}, 0, columnCount)
	m := reg.MainParticipant
	row = append(row,
		reg.RegistrationDate.UTC().Format(time.RFC3339),
		reg.ID,
		reg.EventID,
		reg.EventName,
		reg.TeamName,
		m.Name, m.Email, m.Phone, m.RollNo, m.Course, m.Year, m.Institution(),
		reg.CollegeIDURL,
		reg.Query,
	)
	for i := 0; i < domain.MaxTeamMembers; i++ {
		if i < len(reg.TeamMembers) {
			p := reg.TeamMembers[i]
			row = append(row, p.Name, p.Email, p.Phone, p.RollNo, p.Course, p.Year, p.Institution(), p.CollegeIDURL)
			continue
		}
		for range memberColumns {
			row = append(row, "")
		}
	}
	return append(row, SchemaVersion)
}

func get(row []interface{}, i int) string {
	if i < len(row) && row[i] != nil {
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}
	return ""
}

func parseRow(row []interface{}, event *domain.Event) *domain.Registration {
	reg := &domain.Registration{
		ID:          get(row, colID),
		EventID:     get(row, colEventID),
		EventName:   get(row, colEventName),
		IsTeamEvent: event.IsTeamEvent(),
		TeamName:    get(row, colTeamName),
		MainParticipant: domain.Participant{
			Name:         get(row, colName),
			Email:        get(row, colEmail),
			Phone:        get(row, colPhone),
			RollNo:       get(row, colRollNo),
			Course:       get(row, colCourse),
			Year:         get(row, colYear),
			College:      get(row, colCollege),
			CollegeIDURL: get(row, colCollegeID),
		},
		CollegeIDURL: get(row, colCollegeID),
		Query:        get(row, colQuery),
		TeamMembers:  []domain.Participant{},
	}
	if ts, err := time.Parse(time.RFC3339, get(row, colTimestamp)); err == nil {
		reg.RegistrationDate = ts
	}
	for i := 0; i < domain.MaxTeamMembers; i++ {
		base := colFirstMember + i*len(memberColumns)
		p := domain.Participant{
			Name:         get(row, base),
			Email:        get(row, base+1),
			Phone:        get(row, base+2),
			RollNo:       get(row, base+3),
			Course:       get(row, base+4),
			Year:         get(row, base+5),
			College:      get(row, base+6),
			CollegeIDURL: get(row, base+7),
		}
		if p.Name != "" || p.Email != "" {
			reg.TeamMembers = append(reg.TeamMembers, p)
		}
	}
	return reg
}

// SheetName returns the worksheet an event's rows go to.
func SheetName(event *domain.Event) string {
	if strings.TrimSpace(event.SheetName) != "" {
		return event.SheetName
	}
	return event.Name
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// sheetsAPI is the subset of the Sheets API the registry needs.
type sheetsAPI interface {
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	AddSheet(ctx context.Context, spreadsheetID, title string) error
	Values(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	UpdateValues(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error
	AppendValues(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error
}

type serviceSheets struct {
	svc *sheets.Service
}

func (s *serviceSheets) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	ss, err := s.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (s *serviceSheets) AddSheet(ctx context.Context, spreadsheetID, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}
	_, err := s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func (s *serviceSheets) Values(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceSheets) UpdateValues(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error {
	vr := &sheets.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *serviceSheets) AppendValues(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error {
	vr := &sheets.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// SheetsRegistry is the spreadsheet-backed system of record: one worksheet per
// event inside a single spreadsheet.
type SheetsRegistry struct {
	connect       func(ctx context.Context) (sheetsAPI, error)
	spreadsheetID string
	timeout       time.Duration
	ready         *cache.TTL[bool]
	logger        *slog.Logger
}

var (
	_ domain.RegistryWriter = (*SheetsRegistry)(nil)
	_ domain.ContactLister  = (*SheetsRegistry)(nil)
)

// NewSheetsRegistry returns a registry writing to spreadsheetID. Every remote
// call runs under timeout.
func NewSheetsRegistry(provider *ClientProvider, spreadsheetID string, timeout time.Duration, clock cache.Clock, logger *slog.Logger) *SheetsRegistry {
	connect := func(ctx context.Context) (sheetsAPI, error) {
		c, err := provider.Clients(ctx)
		if err != nil {
			return nil, err
		}
		return &serviceSheets{svc: c.Sheets}, nil
	}
	return newSheetsRegistry(connect, spreadsheetID, timeout, clock, logger)
}

func newSheetsRegistry(connect func(ctx context.Context) (sheetsAPI, error), spreadsheetID string, timeout time.Duration, clock cache.Clock, logger *slog.Logger) *SheetsRegistry {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SheetsRegistry{
		connect:       connect,
		spreadsheetID: spreadsheetID,
		timeout:       timeout,
		ready:         cache.NewTTL[bool](readyTTL, clock),
		logger:        logger,
	}
}

func (r *SheetsRegistry) fail(phase domain.RegistryPhase, err error) error {
	var authErr *domain.AuthInitError
	if errors.As(err, &authErr) {
		phase = domain.PhaseAuth
	}
	return &domain.RegistryError{Backend: domain.RegistrySheets, Phase: phase, Err: err}
}

// EnsureReady creates the event's worksheet and header row when missing. A
// sheet verified once is trusted for readyTTL without further remote calls.
func (r *SheetsRegistry) EnsureReady(ctx context.Context, event *domain.Event) error {
	sheet := SheetName(event)
	if _, ok := r.ready.Get(sheet); ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	api, err := r.connect(ctx)
	if err != nil {
		return r.fail(domain.PhaseAuth, err)
	}
	titles, err := api.SheetTitles(ctx, r.spreadsheetID)
	if err != nil {
		return r.fail(domain.PhaseSheetCheck, fmt.Errorf("list sheets: %w", err))
	}
	if !slices.Contains(titles, sheet) {
		if err := api.AddSheet(ctx, r.spreadsheetID, sheet); err != nil {
			return r.fail(domain.PhaseSheetCheck, fmt.Errorf("add sheet %q: %w", sheet, err))
		}
		r.logger.InfoContext(ctx, "created registration sheet", "sheet", sheet)
	}

	first, err := api.Values(ctx, r.spreadsheetID, fmt.Sprintf("%s!A1:%s1", quoteSheet(sheet), lastColumn))
	if err != nil {
		return r.fail(domain.PhaseSheetCheck, fmt.Errorf("read header: %w", err))
	}
	if len(first) == 0 || rowEmpty(first[0]) {
		header := make([]interface{}, 0, columnCount)
		for _, h := range Header() {
			header = append(header, h)
		}
		if err := api.UpdateValues(ctx, r.spreadsheetID, quoteSheet(sheet)+"!A1", [][]interface{}{header}); err != nil {
			return r.fail(domain.PhaseSheetCheck, fmt.Errorf("write header: %w", err))
		}
	}
	r.ready.Set(sheet, true)
	return nil
}

func rowEmpty(row []interface{}) bool {
	for i := range row {
		if get(row, i) != "" {
			return false
		}
	}
	return true
}

// Append writes exactly one row for reg. reg.ID is assigned when empty.
func (r *SheetsRegistry) Append(ctx context.Context, event *domain.Event, reg *domain.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	api, err := r.connect(ctx)
	if err != nil {
		return r.fail(domain.PhaseAuth, err)
	}
	sheet := SheetName(event)
	rng := fmt.Sprintf("%s!A:%s", quoteSheet(sheet), lastColumn)
	if err := api.AppendValues(ctx, r.spreadsheetID, rng, [][]interface{}{Row(reg)}); err != nil {
		// The sheet may have been removed since it was verified.
		r.ready.Invalidate(sheet)
		return r.fail(domain.PhaseAppend, err)
	}
	return nil
}

// readAll returns every row of the event's worksheet, header included. A
// worksheet that does not exist yet has no rows.
func (r *SheetsRegistry) readAll(ctx context.Context, event *domain.Event) ([][]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	api, err := r.connect(ctx)
	if err != nil {
		return nil, r.fail(domain.PhaseAuth, err)
	}
	sheet := SheetName(event)
	if _, ok := r.ready.Get(sheet); !ok {
		titles, err := api.SheetTitles(ctx, r.spreadsheetID)
		if err != nil {
			return nil, r.fail(domain.PhaseRead, fmt.Errorf("list sheets: %w", err))
		}
		if !slices.Contains(titles, sheet) {
			return nil, nil
		}
	}
	values, err := api.Values(ctx, r.spreadsheetID, fmt.Sprintf("%s!A:%s", quoteSheet(sheet), lastColumn))
	if err != nil {
		return nil, r.fail(domain.PhaseRead, err)
	}
	return values, nil
}

// Find returns the first row whose main email matches email.
func (r *SheetsRegistry) Find(ctx context.Context, event *domain.Event, email string) (*domain.Registration, error) {
	values, err := r.readAll(ctx, event)
	if err != nil {
		return nil, err
	}
	// header row at index 0
	for i := 1; i < len(values); i++ {
		if strings.EqualFold(get(values[i], colEmail), email) {
			return parseRow(values[i], event), nil
		}
	}
	return nil, domain.ErrNotFound
}

// Contacts returns the lower-cased main emails and the phones on the sheet.
func (r *SheetsRegistry) Contacts(ctx context.Context, event *domain.Event) ([]string, []string, error) {
	values, err := r.readAll(ctx, event)
	if err != nil {
		return nil, nil, err
	}
	var emails, phones []string
	for i := 1; i < len(values); i++ {
		if e := strings.ToLower(get(values[i], colEmail)); e != "" {
			emails = append(emails, e)
		}
		if p := get(values[i], colPhone); p != "" {
			phones = append(phones, p)
		}
	}
	return emails, phones, nil
}
