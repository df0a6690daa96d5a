package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/data/repos"
	types "github.com/yungbote/wishlist-backend/internal/domain"
	domainagg "github.com/yungbote/wishlist-backend/internal/domain/aggregates"
	"github.com/yungbote/wishlist-backend/internal/domain/secretsanta"
	"github.com/yungbote/wishlist-backend/internal/pkg/ctxutil"
	"github.com/yungbote/wishlist-backend/internal/pkg/dbctx"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type CreateSecretSantaParams struct {
	Budget      *float64
	Description *string
}

type UpdateSecretSantaParams struct {
	Budget      *float64
	Description *string
}

// MyDraw is what the caller may see of their own draw.
type MyDraw struct {
	SecretSantaID    uuid.UUID       `json:"secret_santa_id"`
	ParticipantID    uuid.UUID       `json:"participant_id"`
	DrawnAttendeeID  uuid.UUID       `json:"drawn_attendee_id"`
	DrawnUserID      *uuid.UUID      `json:"drawn_user_id,omitempty"`
	DrawnDisplayName string          `json:"drawn_display_name"`
	Budget           *float64        `json:"budget,omitempty"`
	Description      *string         `json:"description,omitempty"`
	Event            *types.Event    `json:"event"`
	Drawn            *types.Attendee `json:"-"`
}

// SecretSantaService authorizes Secret Santa use cases against the event and
// hands the writes to the aggregate. Errors are *aggregates.Error.
type SecretSantaService interface {
	GetForEvent(ctx context.Context, eventID uuid.UUID) (*types.SecretSanta, error)
	Create(ctx context.Context, eventID uuid.UUID, params CreateSecretSantaParams) (*types.SecretSanta, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateSecretSantaParams) (*types.SecretSanta, error)
	Start(ctx context.Context, id uuid.UUID) (*types.SecretSanta, error)
	Cancel(ctx context.Context, id uuid.UUID) (*types.SecretSanta, error)
	AddParticipants(ctx context.Context, id uuid.UUID, attendeeIDs []uuid.UUID) (*types.SecretSanta, error)
	UpdateExclusions(ctx context.Context, participantID uuid.UUID, excludedIDs []uuid.UUID) (*types.SecretSanta, error)
	RemoveParticipant(ctx context.Context, participantID uuid.UUID) (*types.SecretSanta, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetMyDraw(ctx context.Context, id uuid.UUID) (*MyDraw, error)
}

type SecretSantaServiceDeps struct {
	Log          *logger.Logger
	Users        repos.UserRepo
	Events       repos.EventRepo
	Attendees    repos.AttendeeRepo
	SecretSantas repos.SecretSantaRepo
	Participants repos.SecretSantaParticipantRepo
	Aggregate    domainagg.SecretSantaAggregate
	Notifier     SecretSantaNotifier
	// Dispatch runs post-commit notifications; defaults to a goroutine.
	Dispatch func(func())
	Now      func() time.Time
}

type secretSantaService struct {
	log          *logger.Logger
	users        repos.UserRepo
	events       repos.EventRepo
	attendees    repos.AttendeeRepo
	secretSantas repos.SecretSantaRepo
	participants repos.SecretSantaParticipantRepo
	agg          domainagg.SecretSantaAggregate
	notifier     SecretSantaNotifier
	dispatch     func(func())
	now          func() time.Time
}

func NewSecretSantaService(deps SecretSantaServiceDeps) SecretSantaService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &secretSantaService{
		log:          log.With("service", "SecretSantaService"),
		users:        deps.Users,
		events:       deps.Events,
		attendees:    deps.Attendees,
		secretSantas: deps.SecretSantas,
		participants: deps.Participants,
		agg:          deps.Aggregate,
		notifier:     deps.Notifier,
		dispatch:     deps.Dispatch,
		now:          deps.Now,
	}
	if s.notifier == nil {
		s.notifier = noopSecretSantaNotifier{}
	}
	if s.dispatch == nil {
		s.dispatch = func(fn func()) { go fn() }
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// eventScope is the event as seen by the calling user.
type eventScope struct {
	event     *types.Event
	attendees []*types.Attendee
	actor     *types.User
}

func (sc eventScope) canEdit() bool {
	return sc.event.CanEdit(sc.actor, sc.attendees)
}

func (sc eventScope) canView() bool {
	return sc.canEdit() || sc.event.AttendeeFor(sc.actor.ID, sc.attendees) != nil
}

// redactDraws clears every draw except the caller's own, for maintainers
// and admins too.
func (sc eventScope) redactDraws(ss *types.SecretSanta) {
	var mine uuid.UUID
	if sc.actor != nil {
		if a := sc.event.AttendeeFor(sc.actor.ID, sc.attendees); a != nil {
			mine = a.ID
		}
	}
	for i := range ss.Participants {
		if mine == uuid.Nil || ss.Participants[i].AttendeeID != mine {
			ss.Participants[i].DrawnParticipantID = nil
		}
	}
}

// visible copies a snapshot for the caller with redactDraws applied.
func (sc eventScope) visible(snap types.SecretSanta) *types.SecretSanta {
	out := snap
	out.Participants = append([]types.SecretSantaParticipant(nil), snap.Participants...)
	sc.redactDraws(&out)
	return &out
}

func (sc eventScope) attendee(id uuid.UUID) *types.Attendee {
	for _, a := range sc.attendees {
		if a != nil && a.ID == id {
			return a
		}
	}
	return nil
}

func (s *secretSantaService) loadScope(ctx context.Context, op string, eventID uuid.UUID) (eventScope, error) {
	var sc eventScope
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return sc, domainagg.NewError(domainagg.CodeForbidden, op, "request is not authenticated", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}

	actor, err := s.users.GetByID(dbc, rd.UserID)
	if err != nil {
		return sc, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if actor == nil {
		return sc, domainagg.NewError(domainagg.CodeForbidden, op, "unknown user", nil)
	}
	ev, err := s.events.GetByID(dbc, eventID)
	if err != nil {
		return sc, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if ev == nil {
		return sc, domainagg.NewError(domainagg.CodeNotFound, op, "event not found", nil)
	}
	attendees, err := s.attendees.ListByEventID(dbc, ev.ID)
	if err != nil {
		return sc, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return eventScope{event: ev, attendees: attendees, actor: actor}, nil
}

func (s *secretSantaService) editScope(ctx context.Context, op string, eventID uuid.UUID) (eventScope, error) {
	sc, err := s.loadScope(ctx, op, eventID)
	if err != nil {
		return sc, err
	}
	if !sc.canEdit() {
		return sc, domainagg.NewError(domainagg.CodeForbidden, op, "only event maintainers can manage the secret santa", nil)
	}
	return sc, nil
}

func (s *secretSantaService) secretSantaRow(ctx context.Context, op string, id uuid.UUID) (*types.SecretSanta, error) {
	row, err := s.secretSantas.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if row == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "secret santa not found", nil)
	}
	return row, nil
}

func (s *secretSantaService) participantRow(ctx context.Context, op string, id uuid.UUID) (*types.SecretSantaParticipant, error) {
	row, err := s.participants.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if row == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "participant not found", nil)
	}
	return row, nil
}

func (s *secretSantaService) hydrate(ctx context.Context, op string, row *types.SecretSanta) (*types.SecretSanta, error) {
	rows, err := s.participants.ListBySecretSantaID(dbctx.Context{Ctx: ctx}, row.ID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	out := *row
	out.Participants = make([]types.SecretSantaParticipant, 0, len(rows))
	for _, p := range rows {
		if p != nil {
			out.Participants = append(out.Participants, *p)
		}
	}
	return &out, nil
}

func (s *secretSantaService) GetForEvent(ctx context.Context, eventID uuid.UUID) (*types.SecretSanta, error) {
	const op = "SecretSantaService.GetForEvent"
	sc, err := s.loadScope(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	if !sc.canView() {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "not an attendee of this event", nil)
	}
	row, err := s.secretSantas.GetByEventID(dbctx.Context{Ctx: ctx}, eventID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if row == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "event has no secret santa", nil)
	}
	out, err := s.hydrate(ctx, op, row)
	if err != nil {
		return nil, err
	}
	sc.redactDraws(out)
	return out, nil
}

func (s *secretSantaService) Create(ctx context.Context, eventID uuid.UUID, params CreateSecretSantaParams) (*types.SecretSanta, error) {
	const op = "SecretSantaService.Create"
	if _, err := s.editScope(ctx, op, eventID); err != nil {
		return nil, err
	}
	snap, err := s.agg.Create(ctx, domainagg.CreateSecretSantaInput{
		SecretSantaID: uuid.New(),
		EventID:       eventID,
		Budget:        params.Budget,
		Description:   params.Description,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("secret santa created", "secret_santa_id", snap.ID, "event_id", eventID)
	return &snap, nil
}

func (s *secretSantaService) Update(ctx context.Context, id uuid.UUID, params UpdateSecretSantaParams) (*types.SecretSanta, error) {
	const op = "SecretSantaService.Update"
	row, err := s.secretSantaRow(ctx, op, id)
	if err != nil {
		return nil, err
	}
	sc, err := s.editScope(ctx, op, row.EventID)
	if err != nil {
		return nil, err
	}
	snap, err := s.agg.Update(ctx, domainagg.UpdateSecretSantaInput{
		SecretSantaID: id,
		Budget:        params.Budget,
		Description:   params.Description,
		UpdatedAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	return sc.visible(snap), nil
}

func (s *secretSantaService) Start(ctx context.Context, id uuid.UUID) (*types.SecretSanta, error) {
	const op = "SecretSantaService.Start"
	row, err := s.secretSantaRow(ctx, op, id)
	if err != nil {
		return nil, err
	}
	sc, err := s.editScope(ctx, op, row.EventID)
	if err != nil {
		return nil, err
	}
	if row.Status == types.SecretSantaStarted {
		return nil, domainagg.Wrap(domainagg.CodeForbidden, op, secretsanta.ErrAlreadyStarted)
	}
	now := s.now()
	if sc.event.IsFinished(now) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "event is already finished", nil)
	}

	snap, err := s.agg.Start(ctx, domainagg.StartSecretSantaInput{SecretSantaID: id, StartedAt: now})
	if err != nil {
		return nil, err
	}
	s.log.Info("secret santa started", "secret_santa_id", snap.ID, "participants", len(snap.Participants))

	n := s.drawStartedNotification(ctx, sc, snap)
	s.notify(ctx, "DrawStarted", snap.ID, func(nctx context.Context) error {
		return s.notifier.DrawStarted(nctx, n)
	})
	return sc.visible(snap), nil
}

func (s *secretSantaService) Cancel(ctx context.Context, id uuid.UUID) (*types.SecretSanta, error) {
	const op = "SecretSantaService.Cancel"
	row, err := s.secretSantaRow(ctx, op, id)
	if err != nil {
		return nil, err
	}
	sc, err := s.editScope(ctx, op, row.EventID)
	if err != nil {
		return nil, err
	}
	res, err := s.agg.Cancel(ctx, domainagg.CancelSecretSantaInput{SecretSantaID: id, CancelledAt: s.now()})
	if err != nil {
		return nil, err
	}
	s.log.Info("secret santa cancelled", "secret_santa_id", id, "was_started", res.WasStarted)

	if res.Previous.HasDraws() {
		n := s.drawCancelledNotification(ctx, sc, res.Previous)
		s.notify(ctx, "DrawCancelled", id, func(nctx context.Context) error {
			return s.notifier.DrawCancelled(nctx, n)
		})
	}
	return sc.visible(res.SecretSanta), nil
}

func (s *secretSantaService) AddParticipants(ctx context.Context, id uuid.UUID, attendeeIDs []uuid.UUID) (*types.SecretSanta, error) {
	const op = "SecretSantaService.AddParticipants"
	row, err := s.secretSantaRow(ctx, op, id)
	if err != nil {
		return nil, err
	}
	sc, err := s.editScope(ctx, op, row.EventID)
	if err != nil {
		return nil, err
	}
	if len(attendeeIDs) == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "no attendees given", nil)
	}
	for _, aid := range attendeeIDs {
		if sc.attendee(aid) == nil {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "attendee "+aid.String()+" does not belong to the event", nil)
		}
	}
	snap, err := s.agg.AddParticipants(ctx, domainagg.AddSecretSantaParticipantsInput{
		SecretSantaID: id,
		AttendeeIDs:   attendeeIDs,
		AddedAt:       s.now(),
	})
	if err != nil {
		return nil, err
	}
	return sc.visible(snap), nil
}

func (s *secretSantaService) UpdateExclusions(ctx context.Context, participantID uuid.UUID, excludedIDs []uuid.UUID) (*types.SecretSanta, error) {
	const op = "SecretSantaService.UpdateExclusions"
	p, err := s.participantRow(ctx, op, participantID)
	if err != nil {
		return nil, err
	}
	row, err := s.secretSantaRow(ctx, op, p.SecretSantaID)
	if err != nil {
		return nil, err
	}
	sc, err := s.editScope(ctx, op, row.EventID)
	if err != nil {
		return nil, err
	}
	snap, err := s.agg.UpdateExclusions(ctx, domainagg.UpdateSecretSantaExclusionsInput{
		ParticipantID:          participantID,
		ExcludedParticipantIDs: excludedIDs,
		UpdatedAt:              s.now(),
	})
	if err != nil {
		return nil, err
	}
	return sc.visible(snap), nil
}

func (s *secretSantaService) RemoveParticipant(ctx context.Context, participantID uuid.UUID) (*types.SecretSanta, error) {
	const op = "SecretSantaService.RemoveParticipant"
	p, err := s.participantRow(ctx, op, participantID)
	if err != nil {
		return nil, err
	}
	row, err := s.secretSantaRow(ctx, op, p.SecretSantaID)
	if err != nil {
		return nil, err
	}
	sc, err := s.editScope(ctx, op, row.EventID)
	if err != nil {
		return nil, err
	}
	snap, err := s.agg.RemoveParticipant(ctx, domainagg.RemoveSecretSantaParticipantInput{
		ParticipantID: participantID,
		RemovedAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	return sc.visible(snap), nil
}

func (s *secretSantaService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "SecretSantaService.Delete"
	row, err := s.secretSantaRow(ctx, op, id)
	if err != nil {
		return err
	}
	if _, err := s.editScope(ctx, op, row.EventID); err != nil {
		return err
	}
	if err := s.agg.Delete(ctx, domainagg.DeleteSecretSantaInput{SecretSantaID: id}); err != nil {
		return err
	}
	s.log.Info("secret santa deleted", "secret_santa_id", id)
	return nil
}

func (s *secretSantaService) GetMyDraw(ctx context.Context, id uuid.UUID) (*MyDraw, error) {
	const op = "SecretSantaService.GetMyDraw"
	row, err := s.secretSantaRow(ctx, op, id)
	if err != nil {
		return nil, err
	}
	sc, err := s.loadScope(ctx, op, row.EventID)
	if err != nil {
		return nil, err
	}
	me := sc.event.AttendeeFor(sc.actor.ID, sc.attendees)
	if me == nil {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "not an attendee of this event", nil)
	}
	if row.Status != types.SecretSantaStarted {
		return nil, domainagg.Wrap(domainagg.CodePreconditionFailed, op, secretsanta.ErrNotStarted)
	}
	snap, err := s.hydrate(ctx, op, row)
	if err != nil {
		return nil, err
	}
	mine, ok := snap.ParticipantForAttendee(me.ID)
	if !ok {
		return nil, domainagg.Wrap(domainagg.CodeNotFound, op, secretsanta.ErrParticipantNotFound)
	}
	if mine.DrawnParticipantID == nil {
		return nil, domainagg.NewError(domainagg.CodeInvariantViolation, op, "started participant without a draw", secretsanta.ErrInvariantViolation)
	}
	drawnP, ok := snap.Participant(*mine.DrawnParticipantID)
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeInvariantViolation, op, "drawn participant missing", secretsanta.ErrInvariantViolation)
	}
	drawn := sc.attendee(drawnP.AttendeeID)
	if drawn == nil {
		return nil, domainagg.NewError(domainagg.CodeInvariantViolation, op, "drawn attendee missing", secretsanta.ErrInvariantViolation)
	}
	users := s.usersFor(ctx, []*types.Attendee{drawn})

	return &MyDraw{
		SecretSantaID:    snap.ID,
		ParticipantID:    mine.ID,
		DrawnAttendeeID:  drawn.ID,
		DrawnUserID:      drawn.UserID,
		DrawnDisplayName: drawn.DisplayName(users),
		Budget:           snap.Budget,
		Description:      snap.Description,
		Event:            sc.event,
		Drawn:            drawn,
	}, nil
}

// notify runs fn after the commit on a context that outlives the request.
// Failures are logged; the committed state stands.
func (s *secretSantaService) notify(ctx context.Context, kind string, secretSantaID uuid.UUID, fn func(ctx context.Context) error) {
	nctx := context.WithoutCancel(ctx)
	s.dispatch(func() {
		if err := fn(nctx); err != nil {
			s.log.Warn("secret santa notification failed", "kind", kind, "secret_santa_id", secretSantaID, "error", err)
		}
	})
}

func (s *secretSantaService) usersFor(ctx context.Context, attendees []*types.Attendee) map[uuid.UUID]*types.User {
	ids := make([]uuid.UUID, 0, len(attendees))
	for _, a := range attendees {
		if a != nil && a.UserID != nil {
			ids = append(ids, *a.UserID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*types.User{}
	}
	users, err := s.users.ByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		s.log.Warn("loading attendee users failed", "error", err)
		return map[uuid.UUID]*types.User{}
	}
	return users
}

func (s *secretSantaService) drawStartedNotification(ctx context.Context, sc eventScope, snap types.SecretSanta) DrawStartedNotification {
	users := s.usersFor(ctx, sc.attendees)
	n := DrawStartedNotification{
		EventID:     sc.event.ID,
		EventTitle:  sc.event.Title,
		Budget:      snap.Budget,
		Description: snap.Description,
	}
	for _, p := range snap.Participants {
		giver := sc.attendee(p.AttendeeID)
		if giver == nil || p.DrawnParticipantID == nil {
			continue
		}
		drawnP, ok := snap.Participant(*p.DrawnParticipantID)
		if !ok {
			continue
		}
		n.Participants = append(n.Participants, DrawnPair{
			Email:            giver.Email(users),
			UserID:           giver.UserID,
			DisplayName:      giver.DisplayName(users),
			DrawnDisplayName: sc.attendee(drawnP.AttendeeID).DisplayName(users),
		})
	}
	return n
}

func (s *secretSantaService) drawCancelledNotification(ctx context.Context, sc eventScope, prev types.SecretSanta) DrawCancelledNotification {
	users := s.usersFor(ctx, sc.attendees)
	n := DrawCancelledNotification{EventID: sc.event.ID, EventTitle: sc.event.Title}
	for _, p := range prev.Participants {
		a := sc.attendee(p.AttendeeID)
		if a == nil {
			continue
		}
		if email := a.Email(users); email != "" {
			n.Emails = append(n.Emails, email)
		}
		if a.UserID != nil {
			n.UserIDs = append(n.UserIDs, *a.UserID)
		}
	}
	return n
}
