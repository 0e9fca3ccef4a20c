// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/models"
	"github.com/craftlink/partner-backend/internal/utils"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// Lead notifications

func (s *NotificationService) SendInvitationEmail(lead *models.PartnerLead) error {
	tmpl := s.getEmailTemplate("lead_invitation")

	inviteURL := fmt.Sprintf("%s/partner/apply?invited=true&name=%s&email=%s&skills=%s&leadId=%s&token=%s",
		s.config.Frontend.BaseURL,
		url.QueryEscape(lead.FullName),
		url.QueryEscape(lead.Email),
		url.QueryEscape(lead.Skills),
		lead.ID, lead.InvitationToken)

	data := map[string]interface{}{
		"Name":      lead.FullName,
		"InviteURL": inviteURL,
		"ExpiresIn": fmt.Sprintf("%d hours", s.config.Lifecycle.InvitationTTLHours),
	}

	subject := "You are invited to join CraftLink as a partner"
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(lead.Email, subject, body)
}

// Partner lifecycle notifications

func (s *NotificationService) SendPartnerStatusChangeNotification(partner *models.Partner, previous, next models.PartnerStatus, reason string) error {
	notification := &models.Notification{
		Audience:       models.NotificationAudiencePartner,
		PartnerID:      &partner.ID,
		Type:           "partner_status_change",
		Title:          "Partner status updated",
		Message:        fmt.Sprintf("Your partner status changed from %s to %s", previous, next),
		Priority:       "high",
		Status:         "unread",
		EntityType:     models.HistoryEntityPartner,
		EntityID:       &partner.ID,
		PreviousStatus: string(previous),
		NewStatus:      string(next),
	}
	if reason != "" {
		notification.Message = fmt.Sprintf("%s. Reason: %s", notification.Message, reason)
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	data := map[string]interface{}{
		"ContactName":    partner.ContactName,
		"PreviousStatus": previous,
		"NewStatus":      next,
		"Reason":         reason,
		"DashboardURL":   fmt.Sprintf("%s/partner/dashboard", s.config.Frontend.BaseURL),
	}

	subject := "Partner Status Update"
	tmpl := s.getEmailTemplate("partner_status_change")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(partner.Email, subject, body)
}

func (s *NotificationService) SendTrialOutcomeNotification(partner *models.Partner, trial *models.TrialService) error {
	notification := &models.Notification{
		Audience:   models.NotificationAudiencePartner,
		PartnerID:  &partner.ID,
		Type:       "trial_outcome",
		Title:      "Trial task evaluated",
		Message:    fmt.Sprintf("A trial task was recorded as %s", trial.Status),
		Priority:   "medium",
		Status:     "unread",
		EntityType: models.HistoryEntityTrial,
		EntityID:   &trial.ID,
		NewStatus:  string(trial.Status),
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// Assignment notifications

func (s *NotificationService) SendAssignmentNotification(assignment *models.ServicePartnerAssignment, partner *models.Partner, service *models.Service) error {
	notification := &models.Notification{
		Audience:   models.NotificationAudiencePartner,
		PartnerID:  &partner.ID,
		Type:       "assignment_created",
		Title:      "New service assignment",
		Message:    fmt.Sprintf("You have been assigned to service '%s'", service.Title),
		Priority:   "high",
		Status:     "unread",
		EntityType: models.HistoryEntityAssignment,
		EntityID:   &assignment.ID,
		NewStatus:  string(assignment.Status),
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	data := map[string]interface{}{
		"ContactName":  partner.ContactName,
		"ServiceTitle": service.Title,
		"Strategy":     assignment.Strategy,
		"DetailsURL":   fmt.Sprintf("%s/partner/assignments/%s", s.config.Frontend.BaseURL, assignment.ID),
	}

	subject := "New Assignment - " + service.Title
	tmpl := s.getEmailTemplate("assignment_created")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(partner.Email, subject, body)
}

func (s *NotificationService) SendOrderQueuedNotification(order *models.Order, reason string) error {
	notification := &models.Notification{
		Audience:   models.NotificationAudienceAdmin,
		Type:       "order_queued",
		Title:      "Order queued for manual assignment",
		Message:    fmt.Sprintf("Order %s could not be auto-assigned: %s", order.ID, reason),
		Priority:   "high",
		Status:     "unread",
		EntityType: models.HistoryEntityOrder,
		EntityID:   &order.ID,
		NewStatus:  string(models.OrderStatusQueued),
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// Query methods

func (s *NotificationService) ListPartnerNotifications(partnerID uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).
		Where("audience = ? AND partner_id = ?", models.NotificationAudiencePartner, partnerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "priority", "status"})
	query = utils.ApplyPagination(query, params)

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *NotificationService) ListAdminNotifications(params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).
		Where("audience = ?", models.NotificationAudienceAdmin)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "priority", "status"})
	query = utils.ApplyPagination(query, params)

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *NotificationService) MarkNotificationRead(id uuid.UUID) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND status = ?", id, "unread").
		Updates(map[string]interface{}{"status": "read", "read_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	return nil
}

// Helper methods

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("Email delivery skipped (SMTP not configured)")
		return nil
	}

	// Setup authentication
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	// Compose message
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	// In a real implementation, these would be loaded from files or database
	templates := map[string]EmailTemplate{
		"lead_invitation": {
			Subject: "Partner Invitation",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Name}},</h2>
	<p>We reviewed your profile and would like to invite you to apply as a CraftLink partner.</p>
	<a href="{{.InviteURL}}">Start Your Application</a>
	<p>This invitation expires in {{.ExpiresIn}}.</p>
	<p>Best regards,<br>CraftLink Partner Team</p>
</body>
</html>`,
		},
		"partner_status_change": {
			Subject: "Partner Status Update",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.ContactName}},</h2>
	<p>Your partner status changed from <strong>{{.PreviousStatus}}</strong> to <strong>{{.NewStatus}}</strong>.</p>
	{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
	<a href="{{.DashboardURL}}">Open Your Dashboard</a>
	<p>Best regards,<br>CraftLink Partner Team</p>
</body>
</html>`,
		},
		"assignment_created": {
			Subject: "New Assignment",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.ContactName}},</h2>
	<p>You have been assigned to <strong>{{.ServiceTitle}}</strong>.</p>
	<a href="{{.DetailsURL}}">View Assignment</a>
	<p>Best regards,<br>CraftLink Partner Team</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
