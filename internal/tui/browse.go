package tui

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/service"
)

// Session is the part of a search session the browser drives.
type Session interface {
	Search(ctx context.Context, filter model.FilterKind, language string) (service.Snapshot, error)
	LoadMore(ctx context.Context) (service.Snapshot, error)
	GoToPage(ctx context.Context, n int) ([]model.Repository, error)
	ViewIssues(ctx context.Context, repo string, filter model.FilterKind) ([]model.Issue, error)
	Explain(ctx context.Context, repo string, issue model.Issue) string
	SetSort(order model.SortOrder)
	Snapshot() service.Snapshot
}

// Screen is the view the browser is showing.
type Screen int

const (
	ScreenResults Screen = iota
	ScreenIssues
	ScreenExplanation
)

// BrowseModel is the Bubble Tea model for the interactive browser.
type BrowseModel struct {
	ctx     context.Context
	session Session
	events  <-chan service.Event

	filter   model.FilterKind
	language textinput.Model
	editing  bool
	sort     model.SortOrder

	screen     Screen
	snap       service.Snapshot
	pageItems  []model.Repository // repositories of the current page
	repoCursor int

	issuesRepo  string
	issues      []model.Issue
	issueCursor int
	issueErr    string

	explainIssue model.Issue
	explanation  string

	busy      bool
	slow      bool
	statusMsg string
	errMsg    string
	spinner   spinner.Model
	progress  progress.Model
	width     int
	height    int
	quitting  bool
}

// BrowseOption is a functional option for configuring BrowseModel.
type BrowseOption func(*BrowseModel)

// WithFilter sets the initially selected filter.
func WithFilter(f model.FilterKind) BrowseOption {
	return func(m *BrowseModel) {
		if f.Valid() {
			m.filter = f
		}
	}
}

// WithLanguage sets the initial language.
func WithLanguage(lang string) BrowseOption {
	return func(m *BrowseModel) {
		m.language.SetValue(lang)
	}
}

// WithSortOrder sets the initial result order.
func WithSortOrder(order model.SortOrder) BrowseOption {
	return func(m *BrowseModel) {
		m.sort = order
	}
}

// NewBrowseModel creates the browser model. events carries the session's
// orchestrator events.
func NewBrowseModel(ctx context.Context, session Session, events <-chan service.Event, opts ...BrowseOption) BrowseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot

	p := progress.New(
		progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
		progress.WithWidth(20),
		progress.WithoutPercentage(),
	)

	ti := textinput.New()
	ti.Placeholder = "any language"
	ti.CharLimit = 32
	ti.Prompt = "language: "

	m := BrowseModel{
		ctx:      ctx,
		session:  session,
		events:   events,
		filter:   model.FilterGoodFirstIssue,
		language: ti,
		sort:     model.SortRelevance,
		spinner:  s,
		progress: p,
		width:    100,
		height:   30,
	}
	for _, opt := range opts {
		opt(&m)
	}
	session.SetSort(m.sort)
	return m
}

// Messages produced by session commands.
type (
	resultsMsg struct {
		snap  service.Snapshot
		items []model.Repository
		err   error
	}
	issuesMsg struct {
		repo   string
		issues []model.Issue
		err    error
	}
	explainMsg struct {
		issue model.Issue
		text  string
	}
	sessionEventMsg struct {
		event service.Event
	}
	clearStatusMsg struct{}
)

// Init implements tea.Model
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSessionEvent(m.events))
}

// Update implements tea.Model
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case resultsMsg:
		return m.applyResults(msg), nil

	case issuesMsg:
		m.busy = false
		m.issuesRepo = msg.repo
		m.issues = msg.issues
		m.issueCursor = 0
		m.issueErr = ""
		if msg.err != nil {
			m.issueErr = msg.err.Error()
		}
		m.screen = ScreenIssues
		return m, nil

	case explainMsg:
		m.busy = false
		m.explainIssue = msg.issue
		m.explanation = msg.text
		m.screen = ScreenExplanation
		return m, nil

	case sessionEventMsg:
		cmd := m.applyEvent(msg.event)
		return m, tea.Batch(cmd, waitForSessionEvent(m.events))

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil
	}

	return m, nil
}

// handleEditKey processes input while the language field has focus.
func (m BrowseModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.language.Blur()
		m.language.SetValue(strings.TrimSpace(m.language.Value()))
		return m.startSearch()
	case "esc":
		m.editing = false
		m.language.Blur()
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.language, cmd = m.language.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input
func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "esc", "backspace":
		return m.back(), nil
	}

	switch m.screen {
	case ScreenIssues:
		return m.handleIssuesKey(msg)
	case ScreenExplanation:
		if msg.String() == "w" && m.explainIssue.URL != "" {
			return m, openURL(m.explainIssue.URL)
		}
		return m, nil
	}
	return m.handleResultsKey(msg)
}

func (m BrowseModel) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.repoCursor < len(m.pageItems)-1 {
			m.repoCursor++
		}
	case "k", "up":
		if m.repoCursor > 0 {
			m.repoCursor--
		}
	case "g", "home":
		m.repoCursor = 0
	case "G", "end":
		if len(m.pageItems) > 0 {
			m.repoCursor = len(m.pageItems) - 1
		}

	case "f", "tab":
		m.filter = m.filter.Next()
		if service.AutoSearches(m.filter) {
			return m.startSearch()
		}
		m.statusMsg = "Press s to search " + m.filter.String() + "s"
		return m, clearStatusAfter(3 * time.Second)

	case "/", "l":
		m.editing = true
		return m, m.language.Focus()

	case "s", "r":
		return m.startSearch()

	case "o":
		if m.sort == model.SortRelevance {
			m.sort = model.SortStars
		} else {
			m.sort = model.SortRelevance
		}
		m.session.SetSort(m.sort)
		m.pageItems = model.Sorted(m.pageItems, m.sort)
		m.repoCursor = 0

	case "n", "right", "]":
		return m.nextPage()

	case "p", "left", "[":
		if m.snap.Page > constants.FirstPage && !m.busy {
			m.busy = true
			return m, goToPageCmd(m.ctx, m.session, m.snap.Page-1)
		}

	case "enter":
		if r, ok := m.selectedRepo(); ok && !m.busy {
			m.busy = true
			return m, viewIssuesCmd(m.ctx, m.session, r.FullName, m.filter)
		}

	case "w":
		if r, ok := m.selectedRepo(); ok && r.HTMLURL != "" {
			return m, openURL(r.HTMLURL)
		}
	}
	return m, nil
}

func (m BrowseModel) handleIssuesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.issueCursor < len(m.issues)-1 {
			m.issueCursor++
		}
	case "k", "up":
		if m.issueCursor > 0 {
			m.issueCursor--
		}
	case "enter", "e":
		if m.issueCursor < len(m.issues) && !m.busy {
			m.busy = true
			return m, explainCmd(m.ctx, m.session, m.issuesRepo, m.issues[m.issueCursor])
		}
	case "w":
		if m.issueCursor < len(m.issues) && m.issues[m.issueCursor].URL != "" {
			return m, openURL(m.issues[m.issueCursor].URL)
		}
	}
	return m, nil
}

// back returns to the previous screen.
func (m BrowseModel) back() BrowseModel {
	switch m.screen {
	case ScreenExplanation:
		m.screen = ScreenIssues
	case ScreenIssues:
		m.screen = ScreenResults
	}
	return m
}

func (m BrowseModel) startSearch() (tea.Model, tea.Cmd) {
	m.busy = true
	m.slow = false
	m.errMsg = ""
	m.screen = ScreenResults
	return m, searchCmd(m.ctx, m.session, m.filter, m.language.Value())
}

// nextPage shows the page after the current one, loading it when needed.
func (m BrowseModel) nextPage() (tea.Model, tea.Cmd) {
	if m.busy || !m.snap.Query.Filter.Valid() {
		return m, nil
	}
	next := m.snap.Page + 1
	if next <= m.snap.TotalPages {
		m.busy = true
		return m, goToPageCmd(m.ctx, m.session, next)
	}
	if !m.snap.HasMore {
		m.statusMsg = "No more pages"
		return m, clearStatusAfter(2 * time.Second)
	}
	m.busy = true
	return m, loadMoreCmd(m.ctx, m.session)
}

func (m BrowseModel) applyResults(msg resultsMsg) BrowseModel {
	m.busy = false
	m.slow = false
	if errors.Is(msg.err, service.ErrSuperseded) {
		return m
	}
	m.snap = msg.snap
	if msg.err != nil && !errors.Is(msg.err, service.ErrNoMorePages) {
		m.errMsg = msg.err.Error()
		return m
	}
	m.errMsg = ""
	if msg.items != nil {
		m.pageItems = model.Sorted(msg.items, m.sort)
		m.repoCursor = 0
	}
	return m
}

// applyEvent folds an orchestrator event into the view.
func (m *BrowseModel) applyEvent(e service.Event) tea.Cmd {
	switch e := e.(type) {
	case service.SlowResponseEvent:
		if m.busy {
			m.slow = true
		}
	case service.EnrichmentEvent:
		for i := range m.pageItems {
			if m.pageItems[i].FullName == e.Repo {
				m.pageItems[i].SetIssueCount(e.Count)
			}
		}
		m.snap = m.session.Snapshot()
		if e.Total > 0 {
			return m.progress.SetPercent(float64(e.Completed) / float64(e.Total))
		}
	case service.EnrichmentDoneEvent, service.PageLoadedEvent:
		m.snap = m.session.Snapshot()
	}
	return nil
}

func (m BrowseModel) selectedRepo() (model.Repository, bool) {
	if m.repoCursor < 0 || m.repoCursor >= len(m.pageItems) {
		return model.Repository{}, false
	}
	return m.pageItems[m.repoCursor], true
}

// View implements tea.Model
func (m BrowseModel) View() string {
	if m.quitting {
		return ""
	}
	return renderBrowseView(m)
}

func searchCmd(ctx context.Context, s Session, filter model.FilterKind, language string) tea.Cmd {
	return func() tea.Msg {
		snap, err := s.Search(ctx, filter, language)
		return resultsMsg{snap: snap, items: firstPage(snap), err: err}
	}
}

// firstPage returns the repositories of the first page right after a search.
func firstPage(snap service.Snapshot) []model.Repository {
	if snap.Results == nil {
		return []model.Repository{}
	}
	return snap.Results
}

func loadMoreCmd(ctx context.Context, s Session) tea.Cmd {
	return func() tea.Msg {
		snap, err := s.LoadMore(ctx)
		if err != nil {
			return resultsMsg{snap: snap, err: err}
		}
		items, err := s.GoToPage(ctx, snap.Page)
		return resultsMsg{snap: s.Snapshot(), items: items, err: err}
	}
}

func goToPageCmd(ctx context.Context, s Session, n int) tea.Cmd {
	return func() tea.Msg {
		items, err := s.GoToPage(ctx, n)
		return resultsMsg{snap: s.Snapshot(), items: items, err: err}
	}
}

func viewIssuesCmd(ctx context.Context, s Session, repo string, filter model.FilterKind) tea.Cmd {
	return func() tea.Msg {
		issues, err := s.ViewIssues(ctx, repo, filter)
		return issuesMsg{repo: repo, issues: issues, err: err}
	}
}

func explainCmd(ctx context.Context, s Session, repo string, issue model.Issue) tea.Cmd {
	return func() tea.Msg {
		return explainMsg{issue: issue, text: s.Explain(ctx, repo, issue)}
	}
}

// waitForSessionEvent creates a command that waits for the next orchestrator event.
func waitForSessionEvent(events <-chan service.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg{event: e}
	}
}

// clearStatusAfter returns a command that clears the status after a delay
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// openURL opens a URL in the default browser
func openURL(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd

		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "linux":
			cmd = exec.Command("xdg-open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			return nil
		}

		_ = cmd.Start()
		return nil
	}
}
