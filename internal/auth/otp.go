// Package auth wraps the phone-number OTP flow against AWS Cognito. The
// portal has no passwords: a user proves control of a phone number via a
// custom auth challenge and receives an access token used as the bearer
// credential for the record backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

// User-facing messages for the two OTP steps. Request failures distinguish a
// malformed number from everything else; verify failures do not.
const (
	MsgOTPSent        = "OTP sent to your phone."
	MsgInvalidPhone   = "Invalid phone number format. Please use 10 digits."
	MsgOTPSendFailed  = "Failed to send OTP. Please try again."
	MsgVerifyFailed   = "Failed to verify OTP. Please try again."
	MsgLoginSucceeded = "Login successful!"
)

var (
	// ErrInvalidPhone rejects input before any provider call is made.
	ErrInvalidPhone = errors.New("phone number must be exactly 10 digits")

	// ErrEmptyCode rejects a verify attempt without a code.
	ErrEmptyCode = errors.New("otp code is required")

	// ErrNoChallenge means verify was called without a pending challenge.
	ErrNoChallenge = errors.New("no pending otp challenge")

	// ErrNoToken means the provider accepted the code but returned no
	// authentication result.
	ErrNoToken = errors.New("provider returned no authentication result")
)

var tenDigits = regexp.MustCompile(`^[0-9]{10}$`)

// CognitoAPI is the slice of the Cognito client this package needs.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cognitoidentityprovider.RespondToAuthChallengeInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.RespondToAuthChallengeOutput, error)
	GlobalSignOut(ctx context.Context, params *cognitoidentityprovider.GlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error)
}

// Challenge is the verification handle produced by RequestOTP and consumed
// by VerifyOTP. It survives between the two login posts.
type Challenge struct {
	PhoneNumber string `json:"phone_number"`
	Session     string `json:"session"`
}

type Client struct {
	api         CognitoAPI
	clientID    string
	countryCode string
	logger      *logrus.Logger
}

func New(api CognitoAPI, clientID, countryCode string, logger *logrus.Logger) *Client {
	return &Client{
		api:         api,
		clientID:    clientID,
		countryCode: countryCode,
		logger:      logger,
	}
}

// RequestOTP validates the local number, formats it with the configured
// country calling code and asks the provider to send an OTP. The input must
// be exactly 10 digits; anything else is rejected before the provider is
// contacted.
func (c *Client) RequestOTP(ctx context.Context, localNumber string) (*Challenge, error) {
	if !tenDigits.MatchString(localNumber) {
		return nil, ErrInvalidPhone
	}

	formatted := c.countryCode + localNumber

	resp, err := c.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeCustomAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": formatted,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initiate custom auth: %w", err)
	}

	if resp.ChallengeName != ctypes.ChallengeNameTypeCustomChallenge || resp.Session == nil {
		return nil, fmt.Errorf("unexpected challenge %q from provider", resp.ChallengeName)
	}

	c.logger.WithField("phone_number", formatted).Info("otp requested")

	return &Challenge{
		PhoneNumber: formatted,
		Session:     aws.ToString(resp.Session),
	}, nil
}

// VerifyOTP answers a pending challenge with the code the user received and
// returns the bearer token on success. A failed attempt leaves the challenge
// usable for a retry; when the provider rotates the session string the
// challenge is updated in place.
func (c *Client) VerifyOTP(ctx context.Context, challenge *Challenge, code string) (string, error) {
	if challenge == nil || challenge.Session == "" {
		return "", ErrNoChallenge
	}
	if code == "" {
		return "", ErrEmptyCode
	}

	resp, err := c.api.RespondToAuthChallenge(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
		ChallengeName: ctypes.ChallengeNameTypeCustomChallenge,
		ClientId:      aws.String(c.clientID),
		Session:       aws.String(challenge.Session),
		ChallengeResponses: map[string]string{
			"USERNAME": challenge.PhoneNumber,
			"ANSWER":   code,
		},
	})
	if err != nil {
		return "", fmt.Errorf("respond to auth challenge: %w", err)
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		// The provider re-issued the challenge instead of a token; keep
		// the fresh session so the user can retry with a new answer.
		if resp.Session != nil {
			challenge.Session = aws.ToString(resp.Session)
		}
		return "", ErrNoToken
	}

	c.logger.WithField("phone_number", challenge.PhoneNumber).Info("otp verified")

	return aws.ToString(resp.AuthenticationResult.AccessToken), nil
}

// SignOut invalidates the token with the provider. Callers clear their local
// session regardless of the outcome.
func (c *Client) SignOut(ctx context.Context, token string) error {
	_, err := c.api.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(token),
	})
	if err != nil {
		return fmt.Errorf("global sign out: %w", err)
	}
	return nil
}

// RequestOTPMessage translates a RequestOTP error into the user message for
// the login screen.
func RequestOTPMessage(err error) string {
	if errors.Is(err, ErrInvalidPhone) {
		return MsgInvalidPhone
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return MsgInvalidPhone
	}

	return MsgOTPSendFailed
}

// VerifyOTPMessage translates a VerifyOTP error into the user message for
// the login screen. Every provider-side failure collapses into one message.
func VerifyOTPMessage(error) string {
	return MsgVerifyFailed
}
