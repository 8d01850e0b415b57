package service

import "fmt"

func verificationEmailTemplate(verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Verify your email for %s", appName)
	body := fmt.Sprintf(`Welcome to %s!

Please verify your email address by clicking this link:
%s

This link expires in 24 hours.

If you didn't create an account, you can safely ignore this email.

Best,
The %s Team`, appName, verifyURL, appName)

	return subject, body
}

func welcomeEmailTemplate(appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Your email is verified and your account is active!

Get started: %s

If you have questions, reach out to our support team.

Best,
The %s Team`, appURL, appName)

	return subject, body
}

func emailChangeVerificationTemplate(verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Verify your new email for %s", appName)
	body := fmt.Sprintf(`You requested to change your email address. Please verify your new email by clicking this link:
%s

This link expires in 24 hours.

If you didn't request this change, you can safely ignore this email.

Best,
The %s Team`, verifyURL, appName)

	return subject, body
}

func emailChangeNotificationTemplate(newEmail, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s email is being changed", appName)
	body := fmt.Sprintf(`A request was made to change your account email to %s.

If this was you, verify the link we sent to the new address to complete the change.

If this wasn't you, please contact support immediately.

Best,
The %s Team`, newEmail, appName)

	return subject, body
}

func accountDeletedEmailTemplate(appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`Your account and all associated data have been deleted.

We're sorry to see you go. If this wasn't you, please contact support.

Best,
The %s Team`, appName)

	return subject, body
}

func contactMessageTemplate(name, fromEmail, subject, message, appName string) (string, string) {
	mailSubject := fmt.Sprintf("[%s contact] %s", appName, subject)
	body := fmt.Sprintf(`New contact form message.

From: %s <%s>

%s`, name, fromEmail, message)

	return mailSubject, body
}
