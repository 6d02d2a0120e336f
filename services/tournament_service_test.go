package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pong-tournament/brackets"
	"github.com/Dosada05/pong-tournament/game"
	"github.com/Dosada05/pong-tournament/models"
	"github.com/Dosada05/pong-tournament/repositories"
	"github.com/Dosada05/pong-tournament/storage"
	"github.com/Dosada05/pong-tournament/tournament"
)

type memoryTournamentRepo struct {
	mu      sync.Mutex
	nextID  int
	rows    map[int]models.Tournament
	saves   int
	saveErr error
}

func newMemoryTournamentRepo() *memoryTournamentRepo {
	return &memoryTournamentRepo{rows: make(map[int]models.Tournament)}
}

func (r *memoryTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Date(2026, 5, 1, 0, 0, r.nextID, 0, time.UTC)
	r.rows[t.ID] = *t
	return nil
}

func (r *memoryTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r *memoryTournamentRepo) List(_ context.Context, limit int) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tournament, 0, len(r.rows))
	for _, t := range r.rows {
		t.AppState = nil
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryTournamentRepo) Latest(ctx context.Context) (*models.Tournament, error) {
	list, _ := r.List(ctx, 1)
	if len(list) == 0 {
		return nil, repositories.ErrTournamentNotFound
	}
	return r.GetByID(ctx, list[0].ID)
}

func (r *memoryTournamentRepo) SaveState(_ context.Context, _ repositories.SQLExecutor, id int, cfg *models.TournamentConfig, state json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	t, ok := r.rows[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if cfg != nil {
		t.Config = cfg
	}
	t.AppState = append(json.RawMessage(nil), state...)
	r.rows[id] = t
	r.saves++
	return nil
}

func (r *memoryTournamentRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *memoryTournamentRepo) stored(t *testing.T, id int) tournament.State {
	t.Helper()
	r.mu.Lock()
	data := r.rows[id].AppState
	r.mu.Unlock()
	s, err := tournament.Decode(data)
	require.NoError(t, err)
	return s
}

type memoryEventRepo struct {
	mu     sync.Mutex
	events []models.MatchEvent
}

func (r *memoryEventRepo) Create(_ context.Context, _ repositories.SQLExecutor, e *models.MatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = len(r.events) + 1
	r.events = append(r.events, *e)
	return nil
}

func (r *memoryEventRepo) ListByTournament(_ context.Context, id int) ([]models.MatchEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.MatchEvent
	for _, e := range r.events {
		if e.TournamentID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []models.MatchEvent
}

func (p *recordingPublisher) PublishMatchEvents(_ context.Context, events []models.MatchEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, events...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []brackets.WebSocketMessage
}

func (b *recordingBroadcaster) BroadcastToRoom(room string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := message.(brackets.WebSocketMessage); ok {
		b.messages = append(b.messages, m)
	}
}

func (b *recordingBroadcaster) count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.messages {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

type recordingArchive struct {
	mu  sync.Mutex
	ids []int
}

func (a *recordingArchive) Archive(_ context.Context, id int, _ any) (*storage.UploadResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ids = append(a.ids, id)
	return &storage.UploadResult{Key: fmt.Sprintf("tournaments/%d/final.json", id)}, nil
}

type fixture struct {
	svc     *tournamentService
	repo    *memoryTournamentRepo
	events  *memoryEventRepo
	pub     *recordingPublisher
	hub     *recordingBroadcaster
	archive *recordingArchive
}

func newFixture(t *testing.T, tick time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		repo:    newMemoryTournamentRepo(),
		events:  &memoryEventRepo{},
		pub:     &recordingPublisher{},
		hub:     &recordingBroadcaster{},
		archive: &recordingArchive{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewTournamentService(f.repo, f.events, f.pub, f.hub, f.archive, logger,
		TournamentServiceConfig{TickInterval: tick, DefaultGameTime: 300}).(*tournamentService)
	t.Cleanup(f.svc.Shutdown)
	return f
}

func twoTeams() []models.Team {
	return []models.Team{
		{Name: "Red", Players: []string{"Ann", "Abe"}},
		{Name: "Blue", Players: []string{"Bob"}},
	}
}

func (f *fixture) dispatch(t *testing.T, id int, actions ...tournament.Action) tournament.State {
	t.Helper()
	var s tournament.State
	for _, a := range actions {
		var err error
		s, err = f.svc.Dispatch(context.Background(), id, a)
		require.NoError(t, err, "action %s", a.Name())
	}
	return s
}

func (f *fixture) startPlayoffs(t *testing.T, gameTime int) int {
	t.Helper()
	created, err := f.svc.Create(context.Background(), nil)
	require.NoError(t, err)
	f.dispatch(t, created.ID,
		tournament.SubmitTeams{Teams: twoTeams()},
		tournament.StartTournament{Config: models.TournamentConfig{Mode: models.ModePlayoffs, GameTime: gameTime}},
	)
	return created.ID
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t, time.Hour)
	name := "  Spring Cup  "
	created, err := f.svc.Create(context.Background(), &name)
	require.NoError(t, err)
	require.NotNil(t, created.Name)
	assert.Equal(t, "Spring Cup", *created.Name)

	details, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ViewInput, details.State.View)
	assert.NotNil(t, details.Events)

	latest, err := f.svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, created.ID, latest.Tournament.ID)

	_, err = f.svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestLatest_Empty(t *testing.T) {
	f := newFixture(t, time.Hour)
	_, err := f.svc.Latest(context.Background())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestDispatch_PersistsAndBroadcasts(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := f.startPlayoffs(t, 0)

	stored := f.repo.stored(t, id)
	assert.Equal(t, tournament.ViewBracket, stored.View)
	require.NotNil(t, stored.TournamentConfig)
	assert.Equal(t, 300, stored.TournamentConfig.GameTime, "default game time comes from config")
	assert.Equal(t, 2, f.hub.count(brackets.MessageStateUpdated))
}

func TestDispatch_RejectedActionChangesNothing(t *testing.T) {
	f := newFixture(t, time.Hour)
	created, err := f.svc.Create(context.Background(), nil)
	require.NoError(t, err)

	_, err = f.svc.Dispatch(context.Background(), created.ID, tournament.FinalizeMatch{})
	assert.ErrorIs(t, err, tournament.ErrInvalidTransition)
	assert.Zero(t, f.repo.saveCount())
	assert.Zero(t, f.hub.count(brackets.MessageStateUpdated))

	s, err := f.svc.State(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ViewInput, s.View)
}

func TestDispatch_SaveFailureKeepsState(t *testing.T) {
	f := newFixture(t, time.Hour)
	created, err := f.svc.Create(context.Background(), nil)
	require.NoError(t, err)
	f.repo.saveErr = errors.New("db down")

	s := f.dispatch(t, created.ID, tournament.SubmitTeams{Teams: twoTeams()})
	assert.Equal(t, tournament.ViewSetup, s.View)
}

func TestDispatch_EventsStoredAndPublished(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := f.startPlayoffs(t, 0)

	f.dispatch(t, id,
		tournament.SelectMatch{Ref: models.BracketMatchRef{}},
		tournament.ToggleCup{Side: game.Side2, Cup: 0},
		tournament.ResolveAttribution{Player: "Ann"},
	)

	events, err := f.svc.Events(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].TournamentID)
	assert.Equal(t, "r0-m0", events[0].MatchID)
	assert.Equal(t, "Red", events[0].TeamName)
	require.NotNil(t, events[0].PlayerName)
	assert.Equal(t, "Ann", *events[0].PlayerName)

	f.pub.mu.Lock()
	assert.Len(t, f.pub.published, 1)
	f.pub.mu.Unlock()
	assert.Equal(t, 1, f.hub.count(brackets.MessageMatchEvent))
}

func TestClockExpiresMatch(t *testing.T) {
	f := newFixture(t, 5*time.Millisecond)
	id := f.startPlayoffs(t, 3)

	s := f.dispatch(t, id,
		tournament.SelectMatch{Ref: models.BracketMatchRef{}},
		tournament.ToggleCup{Side: game.Side2, Cup: 0},
		tournament.ResolveAttribution{Player: "Ann"},
	)
	require.True(t, s.GameState.IsActive)

	require.Eventually(t, func() bool {
		st, err := f.svc.State(context.Background(), id)
		return err == nil && st.GameState != nil && st.GameState.Outcome != nil
	}, 2*time.Second, 5*time.Millisecond)

	s, err := f.svc.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, s.GameState.TimeLeft)
	assert.Equal(t, game.Side1, s.GameState.Outcome.Winner)
	assert.Equal(t, models.WinTypeRegular, s.GameState.Outcome.WinType)
	assert.False(t, s.GameState.IsActive)
}

func TestClockPauses(t *testing.T) {
	f := newFixture(t, 5*time.Millisecond)
	id := f.startPlayoffs(t, 600)

	f.dispatch(t, id,
		tournament.SelectMatch{Ref: models.BracketMatchRef{}},
		tournament.ToggleCup{Side: game.Side2, Cup: 0},
		tournament.ResolveAttribution{Player: "Ann"},
	)
	require.Eventually(t, func() bool {
		st, _ := f.svc.State(context.Background(), id)
		return st.GameState.TimeLeft < 600
	}, 2*time.Second, 5*time.Millisecond)

	paused := f.dispatch(t, id, tournament.SetClock{Running: false})
	time.Sleep(30 * time.Millisecond)
	s, err := f.svc.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, paused.GameState.TimeLeft, s.GameState.TimeLeft)
}

func TestClockIdleInSuddenDeath(t *testing.T) {
	f := newFixture(t, 5*time.Millisecond)
	id := f.startPlayoffs(t, 600)

	s := f.dispatch(t, id,
		tournament.SelectMatch{Ref: models.BracketMatchRef{}},
		tournament.EndGame{},
		tournament.SetClock{Running: true},
	)
	require.True(t, s.GameState.SuddenDeath)
	require.True(t, s.GameState.IsActive)

	saves := f.repo.saveCount()
	updates := f.hub.count(brackets.MessageStateUpdated)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, saves, f.repo.saveCount(), "no ticks are applied in sudden death")
	assert.Equal(t, updates, f.hub.count(brackets.MessageStateUpdated))
}

func TestAttributionTimeoutFallsBackToUnknown(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := f.startPlayoffs(t, 0)

	past := time.Now().Add(-time.Minute)
	s := f.dispatch(t, id,
		tournament.SelectMatch{Ref: models.BracketMatchRef{}},
		tournament.ToggleCup{Side: game.Side2, Cup: 4, At: past},
	)
	require.NotNil(t, s.GameState.Pending)

	require.Eventually(t, func() bool {
		st, _ := f.svc.State(context.Background(), id)
		return st.GameState != nil && st.GameState.Pending == nil
	}, 2*time.Second, 5*time.Millisecond)

	s, err := f.svc.State(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, s.GameState.CupHits, 1)
	assert.Equal(t, models.UnknownPlayer, s.GameState.CupHits[0].Player)
}

func TestCompletionArchivesSnapshot(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := f.startPlayoffs(t, 0)

	f.dispatch(t, id, tournament.SelectMatch{Ref: models.BracketMatchRef{}})
	for cup := 0; cup < models.CupsPerSide; cup++ {
		f.dispatch(t, id,
			tournament.ToggleCup{Side: game.Side1, Cup: cup},
			tournament.ResolveAttribution{Player: "Bob"},
		)
	}
	s := f.dispatch(t, id, tournament.FinalizeMatch{})
	require.Equal(t, tournament.ViewComplete, s.View)
	assert.Equal(t, "Blue", s.Winner.Name)

	f.svc.Shutdown()
	f.archive.mu.Lock()
	assert.Equal(t, []int{id}, f.archive.ids)
	f.archive.mu.Unlock()

	rows, err := f.svc.TopShooters(context.Background(), id, tournament.ShooterFilter{HideUnknown: true})
	assert.ErrorIs(t, err, ErrServiceClosed)
	assert.Nil(t, rows)
}

func TestTopShooters(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := f.startPlayoffs(t, 0)

	f.dispatch(t, id, tournament.SelectMatch{Ref: models.BracketMatchRef{}})
	for cup := 0; cup < models.CupsPerSide; cup++ {
		f.dispatch(t, id,
			tournament.ToggleCup{Side: game.Side2, Cup: cup},
			tournament.ResolveAttribution{Player: "Abe"},
		)
	}
	f.dispatch(t, id, tournament.FinalizeMatch{})

	rows, err := f.svc.TopShooters(context.Background(), id, tournament.ShooterFilter{Phase: tournament.PhasePlayoffs})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, models.ShooterRow{Player: "Abe", Team: "Red", CupsHit: 6, GamesPlayed: 1}, rows[0])
}

func TestRestore(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := f.startPlayoffs(t, 0)
	snapshot, err := json.Marshal(f.repo.stored(t, id))
	require.NoError(t, err)

	other, err := f.svc.Create(context.Background(), nil)
	require.NoError(t, err)

	s, err := f.svc.Restore(context.Background(), other.ID, snapshot)
	require.NoError(t, err)
	assert.Equal(t, tournament.ViewBracket, s.View)
	assert.Equal(t, tournament.ViewBracket, f.repo.stored(t, other.ID).View)

	_, err = f.svc.Restore(context.Background(), other.ID, []byte(`{"view":"nowhere"}`))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestInstanceLoadsStoredState(t *testing.T) {
	f := newFixture(t, time.Hour)
	id := f.startPlayoffs(t, 0)

	fresh := NewTournamentService(f.repo, f.events, nil, nil, nil, nil, TournamentServiceConfig{TickInterval: time.Hour})
	t.Cleanup(fresh.Shutdown)

	s, err := fresh.State(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, tournament.ViewBracket, s.View)
	require.Len(t, s.Matches, 1)
	assert.Equal(t, "Red", s.Matches[0][0].P1.Name)
}

func TestList(t *testing.T) {
	f := newFixture(t, time.Hour)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(context.Background(), nil)
		require.NoError(t, err)
	}
	list, err := f.svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].ID)
}
