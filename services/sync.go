package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Dosada05/pong-tournament/brackets"
	"github.com/Dosada05/pong-tournament/models"
	"github.com/Dosada05/pong-tournament/tournament"
)

type StateUpdatedPayload struct {
	TournamentID int              `json:"tournament_id"`
	State        tournament.State `json:"state"`
}

// afterCommit сохраняет принятый переход в БД, публикует события и
// рассылает состояние зрителям. Ошибки только логируются, состояние в памяти
// не откатывается. Вызывается под inst.mu.
func (s *tournamentService) afterCommit(ctx context.Context, id int, inst *instance, events []models.MatchEvent, prevView tournament.View) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
	defer cancel()

	data, err := json.Marshal(inst.state)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode tournament state", slog.Int("tournament_id", id), slog.Any("error", err))
		return
	}
	if err := s.tournamentRepo.SaveState(ctx, nil, id, inst.state.TournamentConfig, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save tournament state", slog.Int("tournament_id", id), slog.Any("error", err))
	} else {
		inst.record.Config = inst.state.TournamentConfig
	}

	if len(events) > 0 {
		for i := range events {
			events[i].TournamentID = id
			if err := s.eventRepo.Create(ctx, nil, &events[i]); err != nil {
				s.logger.ErrorContext(ctx, "Failed to store match event",
					slog.Int("tournament_id", id), slog.String("match_id", events[i].MatchID), slog.Any("error", err))
			}
		}
		if err := s.publisher.PublishMatchEvents(ctx, events); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish match events", slog.Int("tournament_id", id), slog.Any("error", err))
		}
	}

	if s.broadcaster != nil {
		room := brackets.TournamentRoom(id)
		s.broadcaster.BroadcastToRoom(room, brackets.WebSocketMessage{
			Type:    brackets.MessageStateUpdated,
			Payload: StateUpdatedPayload{TournamentID: id, State: inst.state},
			RoomID:  room,
		})
		for _, e := range events {
			s.broadcaster.BroadcastToRoom(room, brackets.WebSocketMessage{
				Type:    brackets.MessageMatchEvent,
				Payload: e,
				RoomID:  room,
			})
		}
	}

	if prevView != tournament.ViewComplete && inst.state.View == tournament.ViewComplete {
		s.archiveFinal(id, data)
		winner := ""
		if inst.state.Winner != nil {
			winner = inst.state.Winner.Name
		}
		s.logger.InfoContext(ctx, "Tournament complete", slog.Int("tournament_id", id), slog.String("winner", winner))
	}
}

func (s *tournamentService) archiveFinal(id int, snapshot json.RawMessage) {
	if s.archive == nil {
		return
	}
	s.archiving.Add(1)
	go func() {
		defer s.archiving.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 4*s.cfg.PersistTimeout)
		defer cancel()
		res, err := s.archive.Archive(ctx, id, snapshot)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to archive final snapshot", slog.Int("tournament_id", id), slog.Any("error", err))
			return
		}
		s.logger.InfoContext(ctx, "Final snapshot archived", slog.Int("tournament_id", id), slog.String("location", res.Location))
	}()
}
