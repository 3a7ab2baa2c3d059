package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type SessionReport struct {
	FullName      string
	SessionId     string
	TotalScore    float64
	TotalPossible float64
	Scores        map[string]float64
	TurnCount     int
}

type IEmailService interface {
	SendSessionReport(toEmail string, report SessionReport) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendSessionReport mails the per-category screening summary to the
// caregiver once a session completes. Not a clinical document; the body
// says so explicitly.
func (s *emailService) SendSessionReport(toEmail string, report SessionReport) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s님의 회상 대화 결과 안내", report.FullName))

	var rows strings.Builder
	for category, score := range report.Scores {
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding: 6px 12px;">%s</td><td style="padding: 6px 12px;">%.1f</td></tr>`,
			category, score,
		))
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>회상 대화 결과 안내</h2>
			<p>%s님이 사진 회상 대화를 마치셨습니다. (%d회 대화)</p>
			<p>종합 점수: <strong>%.1f / %.1f</strong></p>
			<table style="border-collapse: collapse; border: 1px solid #ddd;">
				<tr><th style="padding: 6px 12px;">영역</th><th style="padding: 6px 12px;">점수</th></tr>
				%s
			</table>
			<p style="margin-top: 16px; font-size: 12px; color: #888;">
				본 결과는 의학적 진단이 아니며, 참고용 선별 지표입니다.
				우려되는 부분이 있다면 전문 의료기관 상담을 권해 드립니다.
			</p>
		</div>
	`, report.FullName, report.TurnCount, report.TotalScore, report.TotalPossible, rows.String())

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send session report to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Session report sent to %s\n", toEmail)
	return nil
}
