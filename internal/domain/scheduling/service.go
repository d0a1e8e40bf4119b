package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/platform/auth"
)

var (
	// ErrSlotTaken means a blocking appointment already occupies the slot.
	ErrSlotTaken = errors.New("slot is already booked")
	// ErrNotFound covers both genuinely missing appointments and ownership
	// misses; callers cannot distinguish the two.
	ErrNotFound = errors.New("appointment not found")
	// ErrTerminalStatus means the appointment is cancelled or rejected and
	// can no longer change.
	ErrTerminalStatus = errors.New("appointment is in a terminal state")
	ErrPastDate       = errors.New("appointment date must be in the future")
	// ErrInvalidTransition covers disallowed status changes, such as moving
	// back to pending.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TherapistResolver yields the id of the single therapist account.
// identity.Service satisfies it.
type TherapistResolver interface {
	ResolveTherapistID(ctx context.Context) (uuid.UUID, error)
}

// Notifier delivers a notification to one user. notification.Service
// satisfies it; failures are the notifier's problem, not the scheduler's.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, data map[string]interface{}) error
}

type Service struct {
	appointments AppointmentRepository
	therapists   TherapistResolver
	notifier     Notifier
	logger       zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(repo AppointmentRepository, therapists TherapistResolver, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		appointments: repo,
		therapists:   therapists,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// SlotAvailability is one bookable window annotated with its booking state.
type SlotAvailability struct {
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	Busy          bool       `json:"busy"`
	IsPast        bool       `json:"isPast"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	Status        Status     `json:"status,omitempty"`
}

// DayAvailability is the availability response for one calendar date.
type DayAvailability struct {
	Date  string             `json:"date"`
	Slots []SlotAvailability `json:"slots"`
}

// Availability computes the booking state of every slot on a date. The
// excludeID lets a reschedule treat the appointment's own slot as free.
func (s *Service) Availability(ctx context.Context, date time.Time, excludeID *uuid.UUID) (*DayAvailability, error) {
	out := &DayAvailability{Date: date.Format("2006-01-02"), Slots: []SlotAvailability{}}

	slots := SlotsForDate(date)
	if len(slots) == 0 {
		return out, nil
	}

	therapistID, err := s.therapists.ResolveTherapistID(ctx)
	if err != nil {
		return nil, err
	}

	from, to := slots[0].Start, slots[len(slots)-1].End
	booked, err := s.appointments.ListBlockingBetween(ctx, therapistID, from, to, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list blocking appointments: %w", err)
	}

	byHour := make(map[int]*Appointment, len(booked))
	for _, a := range booked {
		byHour[a.StartTime.In(date.Location()).Hour()] = a
	}

	now := s.now()
	for _, w := range slots {
		sa := SlotAvailability{
			Start:  w.Start,
			End:    w.End,
			IsPast: !w.End.After(now),
		}
		if a, ok := byHour[w.Start.Hour()]; ok {
			sa.Busy = true
			id := a.ID
			sa.AppointmentID = &id
			sa.Status = a.Status
		}
		out.Slots = append(out.Slots, sa)
	}
	return out, nil
}

// Create books a pending appointment for the patient. The therapist is always
// resolved server side; a client-supplied therapist id is ignored.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, patientName string, startTime time.Time, notes *string) (*Appointment, error) {
	if !startTime.After(s.now()) {
		return nil, ErrPastDate
	}

	therapistID, err := s.therapists.ResolveTherapistID(ctx)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:   patientID,
		TherapistID: therapistID,
		StartTime:   startTime,
		Status:      StatusPending,
		Notes:       notes,
		CreatedByID: patientID,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, therapistID, "appointment.created",
		"New appointment request",
		fmt.Sprintf("%s requested an appointment on %s", patientName, a.StartTime.Format("Mon, 02 Jan 2006 at 15:04")),
		map[string]interface{}{"appointment_id": a.ID})
	return a, nil
}

// UpdateParams carries the mutable fields of an appointment. Nil means leave
// unchanged.
type UpdateParams struct {
	Status    *Status
	StartTime *time.Time
}

// Update lets the therapist act on an appointment: accept it, move it, or
// close it out. Ownership is enforced by filtering on the therapist id, so a
// miss is indistinguishable from absence.
func (s *Service) Update(ctx context.Context, therapistID, id uuid.UUID, p UpdateParams) (*Appointment, error) {
	a, err := s.appointments.GetByIDForUser(ctx, id, therapistID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.TherapistID != therapistID {
		return nil, ErrNotFound
	}
	if a.Status.Terminal() {
		return nil, ErrTerminalStatus
	}

	if p.StartTime != nil {
		if !p.StartTime.After(s.now()) {
			return nil, ErrPastDate
		}
		a.StartTime = *p.StartTime
		// Moving an appointment implies the rescheduled state unless the
		// caller is simultaneously closing it out.
		a.Status = StatusRescheduled
	}

	if p.Status != nil {
		next := *p.Status
		if !next.Valid() || next == StatusPending {
			return nil, ErrInvalidTransition
		}
		a.Status = next
	}

	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, a.PatientID, "appointment.updated",
		"Appointment "+string(a.Status),
		fmt.Sprintf("Your appointment on %s is now %s", a.StartTime.Format("Mon, 02 Jan 2006 at 15:04"), a.Status),
		map[string]interface{}{"appointment_id": a.ID, "status": a.Status})
	return a, nil
}

// Remove deletes an appointment on behalf of its patient or its therapist and
// notifies the counterparty.
func (s *Service) Remove(ctx context.Context, callerID uuid.UUID, callerRole string, id uuid.UUID) error {
	a, err := s.appointments.GetByIDForUser(ctx, id, callerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	// Re-check ownership against the caller's role: a patient may only
	// remove their own booking, a therapist only their own calendar entry.
	switch callerRole {
	case auth.RolePatient:
		if a.PatientID != callerID {
			return ErrNotFound
		}
	case auth.RoleTherapist:
		if a.TherapistID != callerID {
			return ErrNotFound
		}
	default:
		return ErrNotFound
	}

	if err := s.appointments.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	counterparty := a.PatientID
	if callerID == a.PatientID {
		counterparty = a.TherapistID
	}
	s.notify(ctx, counterparty, "appointment.deleted",
		"Appointment removed",
		fmt.Sprintf("The appointment on %s was removed", a.StartTime.Format("Mon, 02 Jan 2006 at 15:04")),
		map[string]interface{}{"appointment_id": a.ID})
	return nil
}

// List returns the caller's appointments ascending by date. Therapists may
// filter by patient; patients always see only their own.
func (s *Service) List(ctx context.Context, callerID uuid.UUID, callerRole string, patientFilter *uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	if callerRole == auth.RoleTherapist {
		return s.appointments.ListForTherapist(ctx, callerID, patientFilter, limit, offset)
	}
	return s.appointments.ListForPatient(ctx, callerID, limit, offset)
}

// Get returns one appointment visible to the caller.
func (s *Service) Get(ctx context.Context, callerID, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByIDForUser(ctx, id, callerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// TodayForTherapist returns the therapist's blocking appointments on a
// calendar day, earliest first.
func (s *Service) TodayForTherapist(ctx context.Context, therapistID uuid.UUID, day time.Time) ([]*Appointment, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.appointments.ListBlockingBetween(ctx, therapistID, from, from.AddDate(0, 0, 1), nil)
}

// PendingCountForTherapist counts appointments awaiting a decision.
func (s *Service) PendingCountForTherapist(ctx context.Context, therapistID uuid.UUID) (int, error) {
	return s.appointments.CountByStatusForTherapist(ctx, therapistID, StatusPending)
}

// NextForPatient returns the patient's next upcoming appointment, or
// ErrNotFound when none is booked.
func (s *Service) NextForPatient(ctx context.Context, patientID uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.NextForPatient(ctx, patientID, s.now())
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, ntype, title, body string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, ntype, title, body, data); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("type", ntype).
			Msg("failed to deliver notification")
	}
}

// ParseAppointmentTime accepts RFC3339 or a local `YYYY-MM-DDTHH:MM` stamp.
func ParseAppointmentTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s", s)
	}
	return t, nil
}
