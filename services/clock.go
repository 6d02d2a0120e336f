package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/pong-tournament/tournament"
)

// reconcileTimers запускает или останавливает часы матча и таймер атрибуции
// в соответствии с inst.state. Вызывается под inst.mu.
func (s *tournamentService) reconcileTimers(id int, inst *instance) {
	if inst.closed {
		return
	}
	gs := inst.state.GameState
	inGame := inst.state.View == tournament.ViewGame && gs != nil

	clockWanted := inGame && gs.IsActive && !gs.SuddenDeath && gs.Outcome == nil
	switch {
	case clockWanted && inst.clockStop == nil:
		s.startClock(id, inst)
	case !clockWanted && inst.clockStop != nil:
		close(inst.clockStop)
		inst.clockStop = nil
	}

	if inGame && gs.Pending != nil {
		if inst.attrTimer == nil || inst.attrSeq != gs.Pending.Seq {
			s.stopAttribution(inst)
			s.startAttribution(id, inst, gs.Pending.Seq, gs.Pending.Deadline)
		}
		return
	}
	s.stopAttribution(inst)
}

func (s *tournamentService) stopTimers(inst *instance) {
	if inst.clockStop != nil {
		close(inst.clockStop)
		inst.clockStop = nil
	}
	s.stopAttribution(inst)
}

func (s *tournamentService) startClock(id int, inst *instance) {
	stop := make(chan struct{})
	inst.clockStop = stop
	ticker := time.NewTicker(s.cfg.TickInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				inst.mu.Lock()
				// Тик пришел после паузы - часы уже остановлены
				if inst.clockStop != stop {
					inst.mu.Unlock()
					return
				}
				s.applyTimerAction(id, inst, tournament.Tick{})
				inst.mu.Unlock()
			}
		}
	}()
}

func (s *tournamentService) startAttribution(id int, inst *instance, seq int, deadline time.Time) {
	inst.attrSeq = seq
	var timer *time.Timer
	timer = time.AfterFunc(deadline.Sub(s.now()), func() {
		inst.mu.Lock()
		defer inst.mu.Unlock()
		if inst.attrTimer != timer {
			return
		}
		inst.attrTimer = nil
		s.applyTimerAction(id, inst, tournament.ExpireAttribution{Seq: seq, At: s.now()})
	})
	inst.attrTimer = timer
}

func (s *tournamentService) stopAttribution(inst *instance) {
	if inst.attrTimer != nil {
		inst.attrTimer.Stop()
		inst.attrTimer = nil
	}
	inst.attrSeq = 0
}

func (s *tournamentService) applyTimerAction(id int, inst *instance, action tournament.Action) {
	if inst.closed {
		return
	}
	ctx := context.Background()
	if _, err := s.applyLocked(ctx, id, inst, action); err != nil {
		s.logger.DebugContext(ctx, "Timer action rejected",
			slog.Int("tournament_id", id), slog.String("action", action.Name()), slog.Any("error", err))
	}
}
