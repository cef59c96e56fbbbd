// Package handler implements the JSON API over the domain services.
package handler

import (
	"errors"

	"staffhub/backend/internal/apperr"
	chatservice "staffhub/backend/internal/chat/service"
	employeeservice "staffhub/backend/internal/employee/service"
	identityservice "staffhub/backend/internal/identity/service"
	otpservice "staffhub/backend/internal/otp/service"
	"staffhub/backend/internal/security"
	"staffhub/backend/internal/session"
	taskdomain "staffhub/backend/internal/task/domain"
	taskservice "staffhub/backend/internal/task/service"
)

const (
	msgMissingParams = "Missing params!"
	msgInvalidParams = "Invalid params"
	msgInvalidToken  = "Invalid token"
	msgSuccess       = "Successfully!"

	msgPasswordTooLong = "Password must be at most 72 bytes"
)

// classify maps service sentinels to apperr kinds with the messages clients see.
// Anything unrecognised stays a dependency failure.
func classify(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, otpservice.ErrChallengeNotFound):
		return apperr.E(apperr.KindValidation, "OTP not found", err)
	case errors.Is(err, otpservice.ErrChallengeRejected):
		return apperr.E(apperr.KindValidation, "OTP Error, please try again later!", err)
	case errors.Is(err, otpservice.ErrDispatchFailed):
		return apperr.Dependency("Failed to send OTP, please try again later!", err)

	case errors.Is(err, identityservice.ErrInvalidCredentials):
		return apperr.E(apperr.KindValidation, "Invalid credentials", err)

	case errors.Is(err, employeeservice.ErrEmailExists):
		return apperr.E(apperr.KindConflict, "Email existed", err)
	case errors.Is(err, employeeservice.ErrPhoneExists):
		return apperr.E(apperr.KindConflict, "Phone existed", err)
	case errors.Is(err, employeeservice.ErrAccountExists):
		return apperr.E(apperr.KindConflict, "Employee exists", err)
	case errors.Is(err, employeeservice.ErrNoInvitation):
		return apperr.E(apperr.KindValidation, "No employee", err)
	case errors.Is(err, employeeservice.ErrInvalidToken):
		return apperr.E(apperr.KindValidation, "Invalid or expired token", err)
	case errors.Is(err, employeeservice.ErrEmployeeNotFound):
		return apperr.E(apperr.KindNotFound, "Employee not found!", err)

	case errors.Is(err, taskservice.ErrTaskNotFound):
		return apperr.E(apperr.KindNotFound, "Task not found", err)
	case errors.Is(err, taskservice.ErrAssigneeNotFound):
		return apperr.E(apperr.KindValidation, "Assignee not found", err)
	case errors.Is(err, taskdomain.ErrUnknownStatus):
		return apperr.E(apperr.KindValidation, "Valid status is required: todo, inprogress, or done", err)

	case errors.Is(err, chatservice.ErrMemberNotFound):
		return apperr.E(apperr.KindNotFound, "Not Found User", err)
	case errors.Is(err, chatservice.ErrEmptyMessage):
		return apperr.E(apperr.KindValidation, msgMissingParams, err)

	case errors.Is(err, security.ErrPasswordTooLong):
		return apperr.E(apperr.KindValidation, msgPasswordTooLong, err)

	case errors.Is(err, session.ErrInvalidSession),
		errors.Is(err, security.ErrTokenExpired),
		errors.Is(err, security.ErrInvalidToken):
		return apperr.E(apperr.KindValidation, msgInvalidToken, err)
	}
	return apperr.Dependency("Internal Server Error", err)
}
