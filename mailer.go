package accounts

import "fmt"

// Subjects for the three lifecycle messages.
const (
	WelcomeSubject  = "Welcome to Our Website"
	VerifySubject   = "Verify Your Email"
	ResetOTPSubject = "Password Reset Code"
)

func welcomeBody(email string) string {
	return fmt.Sprintf(`Hi there,

Welcome! Your account has been created using %s.
You can now log in and start exploring.

If you ever need help or have any questions, reach out to us.

Best regards,
The Team
`, email)
}

func verifyOTPBody(name, code string) string {
	return fmt.Sprintf(`Hi %s,

Your verification code is:

%s

This code will expire in 24 hours.
If you did not create this account, you can ignore this email.

Thanks,
The Team
`, name, code)
}

func resetOTPBody(name, code string) string {
	return fmt.Sprintf(`Hi %s,

We received a request to reset the password for your account.
Your password reset code is:

%s

This code will expire in 15 minutes.
If you did not request a password reset, please ignore this email.

Thanks,
The Team
`, name, code)
}
