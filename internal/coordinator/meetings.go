package coordinator

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/audit"
	"flowdeck/internal/guard"
	"flowdeck/internal/models"
	"flowdeck/internal/visibility"
)

type MeetingInput struct {
	Title           string
	Description     string
	MeetingDate     time.Time
	DurationMinutes int
	Location        string
}

// CreateMeeting schedules a meeting and invites the given participants, who
// must be active members of the actor's organization. The creator always
// holds an accepted participant link.
func (c *Coordinator) CreateMeeting(actor models.Actor, in MeetingInput, participantIDs []int64, ip string) (*models.Meeting, error) {
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = 60
	}

	var meeting models.Meeting
	err := c.run(func(tx *gorm.DB) error {
		invited := make([]int64, 0, len(participantIDs))
		seen := map[int64]bool{actor.ID: true}
		for _, id := range participantIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if err := guard.RequireActiveMember(tx, actor.OrgID, id); err != nil {
				return err
			}
			invited = append(invited, id)
		}

		meeting = models.Meeting{
			OrgID:           actor.OrgID,
			Title:           strings.TrimSpace(in.Title),
			Description:     in.Description,
			MeetingDate:     in.MeetingDate,
			DurationMinutes: in.DurationMinutes,
			Location:        in.Location,
			CreatedBy:       actor.ID,
		}
		if err := tx.Create(&meeting).Error; err != nil {
			return err
		}

		links := []models.MeetingParticipant{
			{MeetingID: meeting.ID, UserID: actor.ID, Status: models.ParticipantAccepted},
		}
		for _, id := range invited {
			links = append(links, models.MeetingParticipant{
				MeetingID: meeting.ID, UserID: id, Status: models.ParticipantInvited,
			})
		}
		if err := tx.Create(&links).Error; err != nil {
			return err
		}
		meeting.Participants = links

		_, err := c.rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionCreated,
			Table:    models.TableMeetings,
			RecordID: meeting.ID,
			Details: map[string]any{
				"title":        meeting.Title,
				"meeting_date": meeting.MeetingDate.Format(time.RFC3339),
			},
			IP: ip,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// InviteParticipant adds a member to an existing meeting. Creator or admin
// only; inviting the same user twice is a uniqueness violation.
func (c *Coordinator) InviteParticipant(actor models.Actor, meetingID, userID int64, ip string) (*models.MeetingParticipant, error) {
	var link models.MeetingParticipant
	err := c.run(func(tx *gorm.DB) error {
		meeting, err := visibility.OneMeeting(tx, actor, meetingID)
		if err != nil {
			return err
		}
		if meeting.CreatedBy != actor.ID && !actor.IsAdmin() {
			return apperr.ErrPermissionDenied
		}
		if err := guard.RequireActiveMember(tx, actor.OrgID, userID); err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&models.MeetingParticipant{}).
			Where("meeting_id = ? AND user_id = ?", meetingID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.ErrDuplicate
		}

		link = models.MeetingParticipant{
			MeetingID: meetingID,
			UserID:    userID,
			Status:    models.ParticipantInvited,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		_, err = c.rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionCreated,
			Table:    models.TableParticipants,
			RecordID: meetingID,
			Details:  map[string]any{"user_id": userID},
			IP:       ip,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// RespondToMeeting lets a participant accept or decline an invitation.
func (c *Coordinator) RespondToMeeting(actor models.Actor, meetingID int64, status models.ParticipantStatus, ip string) (*models.MeetingParticipant, error) {
	if status != models.ParticipantAccepted && status != models.ParticipantDeclined {
		return nil, apperr.ErrInvalidTransition
	}

	var link models.MeetingParticipant
	err := c.run(func(tx *gorm.DB) error {
		err := tx.Where("meeting_id = ? AND user_id = ?", meetingID, actor.ID).
			First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		if err != nil {
			return err
		}
		if link.Status == status {
			return nil
		}

		old := link.Status
		link.Status = status
		if err := tx.Save(&link).Error; err != nil {
			return err
		}
		_, err = c.rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionUpdated,
			Table:    models.TableParticipants,
			RecordID: meetingID,
			Details: map[string]any{
				"old_status": string(old),
				"new_status": string(status),
			},
			IP: ip,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// DeleteMeeting cancels a meeting: snapshot audit event first, then the
// participant links and the meeting row go away. Creator or admin only.
func (c *Coordinator) DeleteMeeting(actor models.Actor, id int64, ip string) error {
	return c.run(func(tx *gorm.DB) error {
		meeting, err := visibility.OneMeeting(tx, actor, id)
		if err != nil {
			return err
		}
		if meeting.CreatedBy != actor.ID && !actor.IsAdmin() {
			return apperr.ErrPermissionDenied
		}
		if _, err := c.rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionDeleted,
			Table:    models.TableMeetings,
			RecordID: meeting.ID,
			Details:  map[string]any{"title": meeting.Title},
			IP:       ip,
		}); err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", meeting.ID).
			Delete(&models.MeetingParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Meeting{}, meeting.ID).Error
	})
}
