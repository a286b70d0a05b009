package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

// htmlBodyTemplate is the invoice delivery body. %s placeholders are, in
// order: client name, app name, business name, app name.
const htmlBodyTemplate = `<!DOCTYPE html>
<html>
<body>
    <p>Dear %s,</p>
    <p>Please find your invoice attached.</p>
    <p>This invoice was created and sent using %s.</p>
    <p>If you have any questions, please contact %s directly.</p>
    <br>
    <p>Best regards,</p>
    <p>The %s Team</p>
</body>
</html>
`

// BuildInvoiceMessage assembles the complete raw RFC 5322 message for an
// invoice delivery email: an HTML body plus the rendered PDF as a
// base64-encoded attachment. The result is ready to hand to Sender.Send.
func BuildInvoiceMessage(from, to, subject, clientName, businessName, appName string, pdfBytes []byte, pdfFilename string) ([]byte, error) {
	var msg bytes.Buffer
	writer := multipart.NewWriter(&msg)

	fmt.Fprintf(&msg, "From: %s <%s>\r\n", appName, from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	fmt.Fprintf(&msg, "\r\n")

	// HTML body part.
	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/html; charset=utf-8")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create email body part: %w", err)
	}
	fmt.Fprintf(bodyPart, htmlBodyTemplate, clientName, appName, businessName, appName)

	// PDF attachment part.
	attachmentHeader := textproto.MIMEHeader{}
	attachmentHeader.Set("Content-Type", "application/pdf")
	attachmentHeader.Set("Content-Transfer-Encoding", "base64")
	attachmentHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pdfFilename))
	attachmentPart, err := writer.CreatePart(attachmentHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create email attachment part: %w", err)
	}

	encoder := base64.NewEncoder(base64.StdEncoding, attachmentPart)
	if _, err := encoder.Write(pdfBytes); err != nil {
		return nil, fmt.Errorf("failed to encode PDF attachment: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize PDF attachment: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize email message: %w", err)
	}

	return msg.Bytes(), nil
}
