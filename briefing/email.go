// Package briefing renders and delivers the daily summary: an HTML email and
// a short Telegram message. Delivery failures are reported to the caller but
// never abort a run.
package briefing

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"alpine-pulse/dashboard"
)

// EmailSender delivers the HTML briefing over SMTP with STARTTLS.
type EmailSender struct {
	server   string
	port     int
	user     string
	password string
	to       string
}

// NewEmailSender creates an email sender. to may be a comma-separated list of
// recipients.
func NewEmailSender(server string, port int, user, password, to string) *EmailSender {
	return &EmailSender{
		server:   server,
		port:     port,
		user:     user,
		password: password,
		to:       to,
	}
}

// Notify renders the dashboard into the HTML briefing and sends it.
func (e *EmailSender) Notify(o dashboard.Output) error {
	if e.user == "" || e.to == "" {
		return fmt.Errorf("email: SMTP user or recipient not configured")
	}

	date, err := time.Parse("2006-01-02", o.Date)
	if err != nil {
		date = time.Now()
	}
	dateStr := date.Format("Monday, January 2, 2006")

	body, err := renderEmail(o, dateStr)
	if err != nil {
		return fmt.Errorf("email: render briefing: %w", err)
	}

	subject := fmt.Sprintf("⛰ Alpine Pulse — %s | %d%% Positive · %s Mentions",
		dateStr, o.Summary.PositivePct, humanize.Comma(int64(o.Summary.TotalMentions)))

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", e.user)
	fmt.Fprintf(&msg, "To: %s\r\n", e.to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", e.server, e.port)
	auth := smtp.PlainAuth("", e.user, e.password, e.server)
	recipients := strings.Split(e.to, ",")
	for i := range recipients {
		recipients[i] = strings.TrimSpace(recipients[i])
	}

	if err := smtp.SendMail(addr, auth, e.user, recipients, msg.Bytes()); err != nil {
		return fmt.Errorf("email: send to %s: %w", e.to, err)
	}
	return nil
}

type emailData struct {
	Date        string
	GeneratedAt string
	Summary     summaryView
	Resorts     []resortRow
	Themes      []themeRow
	Feed        []feedRow
}

type summaryView struct {
	TotalMentions string
	PositivePct   int
	NeutralPct    int
	NegativePct   int
}

type resortRow struct {
	Name        string
	Total       int
	PositivePct int
	NeutralPct  int
	NegativePct int
}

type themeRow struct {
	Name      string
	Mentions  int
	Sentiment string
	Color     string
	Badge     string
}

type feedRow struct {
	Source string
	Resort string
	Text   string
	Color  string
}

const (
	maxEmailThemes = 8
	maxEmailFeed   = 6
	maxFeedRowLen  = 180
)

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sentimentColor(s string) string {
	switch s {
	case "positive":
		return "#34d399"
	case "negative":
		return "#f87171"
	default:
		return "#94a3b8"
	}
}

func sentimentBadge(s string) string {
	switch s {
	case "positive":
		return "rgba(52,211,153,0.15)"
	case "negative":
		return "rgba(248,113,113,0.15)"
	default:
		return "rgba(148,163,184,0.15)"
	}
}

func renderEmail(o dashboard.Output, dateStr string) (string, error) {
	data := emailData{
		Date:        dateStr,
		GeneratedAt: time.Now().Format("3:04 PM MT"),
		Summary: summaryView{
			TotalMentions: humanize.Comma(int64(o.Summary.TotalMentions)),
			PositivePct:   o.Summary.PositivePct,
			NeutralPct:    o.Summary.NeutralPct,
			NegativePct:   o.Summary.NegativePct,
		},
	}

	for _, rs := range o.ResortStats {
		data.Resorts = append(data.Resorts, resortRow{
			Name:        rs.Name,
			Total:       rs.Total,
			PositivePct: rs.PositivePct,
			NeutralPct:  rs.NeutralPct,
			NegativePct: rs.NegativePct,
		})
	}

	for i, t := range o.Themes {
		if i >= maxEmailThemes {
			break
		}
		data.Themes = append(data.Themes, themeRow{
			Name:      t.Name,
			Mentions:  t.Mentions,
			Sentiment: titleCase(t.Sentiment),
			Color:     sentimentColor(t.Sentiment),
			Badge:     sentimentBadge(t.Sentiment),
		})
	}

	for i, item := range o.Feed {
		if i >= maxEmailFeed {
			break
		}
		text := item.Text
		if len(text) > maxFeedRowLen {
			text = text[:maxFeedRowLen] + "..."
		}
		data.Feed = append(data.Feed, feedRow{
			Source: item.Source,
			Resort: strings.ToUpper(item.Resort),
			Text:   text,
			Color:  sentimentColor(item.Sentiment),
		})
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var emailTemplate = template.Must(template.New("briefing").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#0B1120;font-family:Arial,Helvetica,sans-serif">
  <div style="max-width:640px;margin:0 auto;padding:32px 20px">

    <div style="text-align:center;margin-bottom:32px">
      <div style="font-size:28px;margin-bottom:8px">⛰</div>
      <h1 style="font-size:24px;color:#f1f5f9;margin:0;letter-spacing:-0.5px">Alpine Pulse</h1>
      <p style="color:#64748b;font-size:13px;margin:4px 0 0;letter-spacing:1px;text-transform:uppercase">Daily Sentiment Briefing</p>
      <p style="color:#94a3b8;font-size:14px;margin:8px 0 0">{{.Date}}</p>
    </div>

    <table style="width:100%;border-collapse:collapse;margin-bottom:24px">
      <tr>
        <td style="width:25%;text-align:center;padding:20px;background:#111827;border-radius:12px 0 0 12px;border-top:2px solid #38bdf8">
          <div style="color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px">Mentions</div>
          <div style="color:#f1f5f9;font-size:28px;font-weight:800;margin-top:4px">{{.Summary.TotalMentions}}</div>
        </td>
        <td style="width:25%;text-align:center;padding:20px;background:#111827;border-top:2px solid #34d399">
          <div style="color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px">Positive</div>
          <div style="color:#34d399;font-size:28px;font-weight:800;margin-top:4px">{{.Summary.PositivePct}}%</div>
        </td>
        <td style="width:25%;text-align:center;padding:20px;background:#111827;border-top:2px solid #94a3b8">
          <div style="color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px">Neutral</div>
          <div style="color:#94a3b8;font-size:28px;font-weight:800;margin-top:4px">{{.Summary.NeutralPct}}%</div>
        </td>
        <td style="width:25%;text-align:center;padding:20px;background:#111827;border-radius:0 12px 12px 0;border-top:2px solid #f87171">
          <div style="color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px">Negative</div>
          <div style="color:#f87171;font-size:28px;font-weight:800;margin-top:4px">{{.Summary.NegativePct}}%</div>
        </td>
      </tr>
    </table>

    <div style="background:#111827;border-radius:12px;padding:20px;margin-bottom:24px;border:1px solid #1e293b">
      <h2 style="color:#94a3b8;font-size:13px;text-transform:uppercase;letter-spacing:1px;margin:0 0 16px">Resort Breakdown</h2>
      <table style="width:100%;border-collapse:collapse">
        <tr>
          <th style="text-align:left;padding:8px 14px;color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px;border-bottom:1px solid #1e293b">Resort</th>
          <th style="text-align:center;padding:8px 14px;color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px;border-bottom:1px solid #1e293b">Total</th>
          <th style="text-align:center;padding:8px 14px;color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px;border-bottom:1px solid #1e293b">Pos</th>
          <th style="text-align:center;padding:8px 14px;color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px;border-bottom:1px solid #1e293b">Neu</th>
          <th style="text-align:center;padding:8px 14px;color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px;border-bottom:1px solid #1e293b">Neg</th>
        </tr>
        {{range .Resorts}}
        <tr>
          <td style="padding:8px 14px;border-bottom:1px solid #1e293b;color:#f1f5f9;font-weight:500">{{.Name}}</td>
          <td style="padding:8px 14px;border-bottom:1px solid #1e293b;color:#94a3b8;text-align:center">{{.Total}}</td>
          <td style="padding:8px 14px;border-bottom:1px solid #1e293b;color:#34d399;text-align:center">{{.PositivePct}}%</td>
          <td style="padding:8px 14px;border-bottom:1px solid #1e293b;color:#94a3b8;text-align:center">{{.NeutralPct}}%</td>
          <td style="padding:8px 14px;border-bottom:1px solid #1e293b;color:#f87171;text-align:center">{{.NegativePct}}%</td>
        </tr>
        {{end}}
      </table>
    </div>

    <div style="background:#111827;border-radius:12px;padding:20px;margin-bottom:24px;border:1px solid #1e293b">
      <h2 style="color:#94a3b8;font-size:13px;text-transform:uppercase;letter-spacing:1px;margin:0 0 16px">Theme Rankings</h2>
      <table style="width:100%;border-collapse:collapse">
        <tr>
          <th style="text-align:left;padding:8px 14px;color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px;border-bottom:1px solid #1e293b">Theme</th>
          <th style="text-align:center;padding:8px 14px;color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px;border-bottom:1px solid #1e293b">Mentions</th>
          <th style="text-align:center;padding:8px 14px;color:#64748b;font-size:10px;text-transform:uppercase;letter-spacing:1px;border-bottom:1px solid #1e293b">Sentiment</th>
        </tr>
        {{range .Themes}}
        <tr>
          <td style="padding:10px 14px;border-bottom:1px solid #1e293b;color:#f1f5f9;font-weight:500">{{.Name}}</td>
          <td style="padding:10px 14px;border-bottom:1px solid #1e293b;color:#94a3b8;text-align:center">{{.Mentions}}</td>
          <td style="padding:10px 14px;border-bottom:1px solid #1e293b;text-align:center">
            <span style="background:{{.Badge}};color:{{.Color}};padding:3px 10px;border-radius:12px;font-size:12px">{{.Sentiment}}</span>
          </td>
        </tr>
        {{end}}
      </table>
    </div>

    <div style="background:#111827;border-radius:12px;padding:20px;margin-bottom:24px;border:1px solid #1e293b">
      <h2 style="color:#94a3b8;font-size:13px;text-transform:uppercase;letter-spacing:1px;margin:0 0 16px">Notable Mentions</h2>
      <table style="width:100%;border-collapse:collapse">
        {{range .Feed}}
        <tr>
          <td style="padding:10px 14px;border-bottom:1px solid #1e293b;width:4px">
            <div style="width:4px;height:36px;background:{{.Color}};border-radius:2px"></div>
          </td>
          <td style="padding:10px 14px;border-bottom:1px solid #1e293b">
            <div style="color:#64748b;font-size:11px;text-transform:uppercase;letter-spacing:1px">{{.Source}} · {{.Resort}}</div>
            <div style="color:#cbd5e1;font-size:13px;margin-top:4px;line-height:1.5">{{.Text}}...</div>
          </td>
        </tr>
        {{end}}
      </table>
    </div>

    <div style="text-align:center;padding:20px;color:#64748b;font-size:11px">
      Alpine Pulse — All Season Resorts Alberta<br>
      Automated sentiment intelligence · Generated {{.GeneratedAt}}
    </div>

  </div>
</body>
</html>
`))
