package mailer

import "fmt"

// ResetEmail composes the password-reset notification.  The link embeds the
// plaintext reset secret and expires with the stored ticket.
func ResetEmail(name, resetURL string) (subject, body string) {
	if name == "" {
		name = "there"
	}
	subject = "Reset your JACANA DEV password"
	body = fmt.Sprintf(`Hi %s,

Someone (hopefully you) requested a password reset for your JACANA DEV
account. Open the link below to choose a new password:

%s

The link is valid for one hour and can be used only once. If you did not
request this, you can safely ignore this email; your password is unchanged.

— JACANA DEV
`, name, resetURL)
	return subject, body
}
