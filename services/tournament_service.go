package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/pong-tournament/models"
	"github.com/Dosada05/pong-tournament/publisher"
	"github.com/Dosada05/pong-tournament/repositories"
	"github.com/Dosada05/pong-tournament/storage"
	"github.com/Dosada05/pong-tournament/tournament"
)

// Broadcaster рассылает сообщения в комнаты WebSocket.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// Archiver сохраняет финальное состояние завершенного турнира.
type Archiver interface {
	Archive(ctx context.Context, tournamentID int, snapshot any) (*storage.UploadResult, error)
}

type TournamentDetails struct {
	Tournament models.Tournament   `json:"tournament"`
	State      tournament.State    `json:"state"`
	Events     []models.MatchEvent `json:"events"`
}

type TournamentService interface {
	Create(ctx context.Context, name *string) (*models.Tournament, error)
	Get(ctx context.Context, id int) (*TournamentDetails, error)
	List(ctx context.Context, limit int) ([]models.Tournament, error)
	Latest(ctx context.Context) (*TournamentDetails, error)
	State(ctx context.Context, id int) (tournament.State, error)
	Dispatch(ctx context.Context, id int, action tournament.Action) (tournament.State, error)
	Restore(ctx context.Context, id int, snapshot []byte) (tournament.State, error)
	Events(ctx context.Context, id int) ([]models.MatchEvent, error)
	TopShooters(ctx context.Context, id int, filter tournament.ShooterFilter) ([]models.ShooterRow, error)
	Shutdown()
}

type TournamentServiceConfig struct {
	DefaultGameTime int
	TickInterval    time.Duration
	PersistTimeout  time.Duration
}

func (c TournamentServiceConfig) withDefaults() TournamentServiceConfig {
	if c.DefaultGameTime <= 0 {
		c.DefaultGameTime = models.DefaultGameTime
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 5 * time.Second
	}
	return c
}

// instance - загруженный в память турнир. Все поля защищены mu.
type instance struct {
	mu     sync.Mutex
	record models.Tournament
	state  tournament.State

	clockStop chan struct{}
	attrTimer *time.Timer
	attrSeq   int
	closed    bool
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	eventRepo      repositories.EventRepository
	publisher      publisher.EventPublisher
	broadcaster    Broadcaster
	archive        Archiver
	logger         *slog.Logger
	cfg            TournamentServiceConfig
	now            func() time.Time

	mu        sync.Mutex
	instances map[int]*instance
	closed    bool
	archiving sync.WaitGroup
}

// NewTournamentService связывает оркестратор с хранилищем и live-рассылкой.
// publisher, broadcaster и archive могут быть nil.
func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	eventRepo repositories.EventRepository,
	pub publisher.EventPublisher,
	broadcaster Broadcaster,
	archive Archiver,
	logger *slog.Logger,
	cfg TournamentServiceConfig,
) TournamentService {
	if pub == nil {
		pub = publisher.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		eventRepo:      eventRepo,
		publisher:      pub,
		broadcaster:    broadcaster,
		archive:        archive,
		logger:         logger,
		cfg:            cfg.withDefaults(),
		now:            time.Now,
		instances:      make(map[int]*instance),
	}
}

func (s *tournamentService) Create(ctx context.Context, name *string) (*models.Tournament, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}
	state := tournament.NewState()
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initial state: %w", err)
	}

	t := &models.Tournament{Name: name, AppState: data}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.mu.Lock()
	s.instances[t.ID] = &instance{record: recordOf(*t), state: state}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Tournament created", slog.Int("tournament_id", t.ID))
	return t, nil
}

func (s *tournamentService) Get(ctx context.Context, id int) (*TournamentDetails, error) {
	details := &TournamentDetails{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		inst, err := s.instance(gCtx, id)
		if err != nil {
			return err
		}
		inst.mu.Lock()
		details.Tournament = inst.record
		details.State = inst.state.Clone()
		inst.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		events, err := s.eventRepo.ListByTournament(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list events of tournament %d: %w", id, err)
		}
		details.Events = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if details.Events == nil {
		details.Events = []models.MatchEvent{}
	}
	return details, nil
}

func (s *tournamentService) List(ctx context.Context, limit int) ([]models.Tournament, error) {
	list, err := s.tournamentRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if list == nil {
		return []models.Tournament{}, nil
	}
	return list, nil
}

func (s *tournamentService) Latest(ctx context.Context) (*TournamentDetails, error) {
	t, err := s.tournamentRepo.Latest(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load latest tournament: %w", err)
	}
	return s.Get(ctx, t.ID)
}

func (s *tournamentService) State(ctx context.Context, id int) (tournament.State, error) {
	inst, err := s.instance(ctx, id)
	if err != nil {
		return tournament.State{}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.state.Clone(), nil
}

func (s *tournamentService) Dispatch(ctx context.Context, id int, action tournament.Action) (tournament.State, error) {
	inst, err := s.instance(ctx, id)
	if err != nil {
		return tournament.State{}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.closed {
		return tournament.State{}, ErrServiceClosed
	}
	return s.applyLocked(ctx, id, inst, s.stamp(action))
}

// stamp fills the wall clock and configured defaults the reducer expects
// callers to supply.
func (s *tournamentService) stamp(action tournament.Action) tournament.Action {
	now := s.now()
	switch a := action.(type) {
	case tournament.StartTournament:
		if a.Config.GameTime <= 0 {
			a.Config.GameTime = s.cfg.DefaultGameTime
		}
		if a.Seed == 0 {
			a.Seed = now.UnixNano()
		}
		return a
	case tournament.GeneratePlayoffs:
		if a.GameTime <= 0 {
			a.GameTime = s.cfg.DefaultGameTime
		}
		return a
	case tournament.ToggleCup:
		if a.At.IsZero() {
			a.At = now
		}
		return a
	case tournament.Rearrange:
		if a.At.IsZero() {
			a.At = now
		}
		return a
	case tournament.ResolveAttribution:
		if a.At.IsZero() {
			a.At = now
		}
		return a
	case tournament.ExpireAttribution:
		if a.At.IsZero() {
			a.At = now
		}
		return a
	}
	return action
}

func (s *tournamentService) applyLocked(ctx context.Context, id int, inst *instance, action tournament.Action) (tournament.State, error) {
	next, err := tournament.Apply(inst.state, action)
	if err != nil {
		return tournament.State{}, err
	}
	events := next.Outbox
	next.Outbox = nil
	prevView := inst.state.View
	inst.state = next

	s.reconcileTimers(id, inst)
	s.afterCommit(ctx, id, inst, events, prevView)
	return inst.state.Clone(), nil
}

func (s *tournamentService) Restore(ctx context.Context, id int, snapshot []byte) (tournament.State, error) {
	state, err := tournament.Decode(snapshot)
	if err != nil {
		return tournament.State{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	inst, err := s.instance(ctx, id)
	if err != nil {
		return tournament.State{}, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.closed {
		return tournament.State{}, ErrServiceClosed
	}

	prevView := inst.state.View
	inst.state = state
	s.stopTimers(inst)
	s.reconcileTimers(id, inst)
	s.afterCommit(ctx, id, inst, nil, prevView)

	s.logger.InfoContext(ctx, "Tournament state restored", slog.Int("tournament_id", id), slog.String("view", string(state.View)))
	return inst.state.Clone(), nil
}

func (s *tournamentService) Events(ctx context.Context, id int) ([]models.MatchEvent, error) {
	if _, err := s.instance(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of tournament %d: %w", id, err)
	}
	if events == nil {
		return []models.MatchEvent{}, nil
	}
	return events, nil
}

func (s *tournamentService) TopShooters(ctx context.Context, id int, filter tournament.ShooterFilter) ([]models.ShooterRow, error) {
	inst, err := s.instance(ctx, id)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return tournament.TopShooters(inst.state, filter), nil
}

// Shutdown останавливает все таймеры и ждет завершения загрузки архивов.
func (s *tournamentService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	instances := make([]*instance, 0, len(s.instances))
	for _, inst := range s.instances {
		instances = append(instances, inst)
	}
	s.mu.Unlock()

	for _, inst := range instances {
		inst.mu.Lock()
		inst.closed = true
		s.stopTimers(inst)
		inst.mu.Unlock()
	}
	s.archiving.Wait()
}

// instance возвращает турнир из памяти, при первом обращении читает его из БД.
func (s *tournamentService) instance(ctx context.Context, id int) (*instance, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrServiceClosed
	}
	if inst, ok := s.instances[id]; ok {
		s.mu.Unlock()
		return inst, nil
	}
	s.mu.Unlock()

	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	state := tournament.NewState()
	if len(t.AppState) > 0 && string(t.AppState) != "null" {
		decoded, decodeErr := tournament.Decode(t.AppState)
		if decodeErr != nil {
			s.logger.ErrorContext(ctx, "Stored tournament state is unreadable, starting fresh",
				slog.Int("tournament_id", id), slog.Any("error", decodeErr))
		} else {
			state = decoded
		}
	}
	loaded := &instance{record: recordOf(*t), state: state}

	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instances[id]; ok {
		return inst, nil
	}
	s.instances[id] = loaded

	loaded.mu.Lock()
	s.reconcileTimers(id, loaded)
	loaded.mu.Unlock()
	return loaded, nil
}

func recordOf(t models.Tournament) models.Tournament {
	t.AppState = nil
	return t
}
