// Package ses mails rate table maintainers via AWS SES.
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	appConfig "msme-roi-engine/internal/config"
	"msme-roi-engine/internal/utils"
)

// Service handles SES email operations
type Service struct {
	client     *ses.Client
	fromEmail  string
	recipients []string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// ResolutionAlert describes an eligible request that hit a rate table gap.
type ResolutionAlert struct {
	DiagnosticID string
	Scheme       string
	Table        string
	Key          string
	TableVersion string
	Stage        string
	Request      string
	OccurredAt   time.Time
}

// IngestReport summarises the ingestion of an uploaded rate table.
type IngestReport struct {
	ObjectKey string
	Version   string
	Accepted  bool
	Entries   int
	Problems  []string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service mailing the configured maintainers.
func NewService(ctx context.Context, appCfg *appConfig.Config) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(appCfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:     ses.NewFromConfig(cfg),
		fromEmail:  appCfg.SESSenderEmail,
		recipients: appCfg.RateTableAlertEmails,
	}, nil
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: params.To,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	// Add HTML body if provided
	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	// Add text body if provided
	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	// Add reply-to
	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to send email",
			zap.Strings("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	utils.GetLogger().Info("Email sent successfully",
		zap.Strings("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", aws.ToString(result.MessageId)),
	)

	return &SendEmailResult{
		MessageID: aws.ToString(result.MessageId),
		SentAt:    time.Now(),
	}, nil
}

// SendResolutionAlert mails the maintainers about a rate table gap.
func (s *Service) SendResolutionAlert(ctx context.Context, alert ResolutionAlert) (*SendEmailResult, error) {
	htmlBody, err := renderResolutionAlertHTML(alert)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       s.recipients,
		Subject:  fmt.Sprintf("[%s] Rate table gap: %s %s[%s]", alert.Stage, alert.Scheme, alert.Table, alert.Key),
		HTMLBody: htmlBody,
		TextBody: renderResolutionAlertText(alert),
	})
}

// SendIngestReport mails the maintainers the outcome of a rate table upload.
func (s *Service) SendIngestReport(ctx context.Context, report IngestReport) (*SendEmailResult, error) {
	status := "accepted"
	if !report.Accepted {
		status = "rejected"
	}

	return s.SendEmail(ctx, EmailParams{
		To:       s.recipients,
		Subject:  fmt.Sprintf("Rate table %s %s", report.Version, status),
		TextBody: renderIngestReportText(report),
	})
}

var resolutionAlertTemplate = template.Must(template.New("resolution_alert").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #b3261e; color: white; padding: 20px; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 20px; border-radius: 0 0 10px 10px; }
        td { padding: 4px 12px 4px 0; }
        pre { background: white; padding: 12px; border-radius: 6px; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Rate table gap</h2>
        <p>An eligible request reached a key the rate table does not contain.</p>
    </div>
    <div class="content">
        <table>
            <tr><td>Diagnostic id</td><td><b>{{.DiagnosticID}}</b></td></tr>
            <tr><td>Scheme</td><td>{{.Scheme}}</td></tr>
            <tr><td>Table</td><td>{{.Table}}</td></tr>
            <tr><td>Key</td><td>{{.Key}}</td></tr>
            <tr><td>Table version</td><td>{{.TableVersion}}</td></tr>
            <tr><td>Occurred at</td><td>{{.OccurredAt.Format "2006-01-02 15:04:05 MST"}}</td></tr>
        </table>
        {{if .Request}}<pre>{{.Request}}</pre>{{end}}
    </div>
</body>
</html>`))

// renderResolutionAlertHTML renders the HTML email template
func renderResolutionAlertHTML(alert ResolutionAlert) (string, error) {
	var buf bytes.Buffer
	if err := resolutionAlertTemplate.Execute(&buf, alert); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderResolutionAlertText renders plain text version
func renderResolutionAlertText(alert ResolutionAlert) string {
	var buf bytes.Buffer

	buf.WriteString("An eligible request reached a key the rate table does not contain.\n\n")
	buf.WriteString(fmt.Sprintf("Diagnostic id: %s\n", alert.DiagnosticID))
	buf.WriteString(fmt.Sprintf("Scheme:        %s\n", alert.Scheme))
	buf.WriteString(fmt.Sprintf("Table:         %s\n", alert.Table))
	buf.WriteString(fmt.Sprintf("Key:           %s\n", alert.Key))
	buf.WriteString(fmt.Sprintf("Table version: %s\n", alert.TableVersion))
	if alert.Request != "" {
		buf.WriteString("\nRequest:\n")
		buf.WriteString(alert.Request)
		buf.WriteString("\n")
	}

	return buf.String()
}

// renderIngestReportText renders the ingestion summary
func renderIngestReportText(report IngestReport) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Object:  %s\n", report.ObjectKey))
	buf.WriteString(fmt.Sprintf("Version: %s\n", report.Version))
	buf.WriteString(fmt.Sprintf("Entries: %d\n", report.Entries))

	if report.Accepted {
		buf.WriteString("\nThe version was stored and activated.\n")
	} else {
		buf.WriteString("\nThe version was rejected and the active rate table is unchanged.\n")
	}

	if len(report.Problems) > 0 {
		buf.WriteString("\nProblems:\n  - ")
		buf.WriteString(strings.Join(report.Problems, "\n  - "))
		buf.WriteString("\n")
	}

	return buf.String()
}
