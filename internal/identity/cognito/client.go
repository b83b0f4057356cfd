package cognito

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	cip "github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider/cognitoidentityprovideriface"

	"user-service/internal/domain/user"
)

const (
	existenceCheckLimit = 1

	errFailedListUsersFmt      = "failed to list users: %w"
	errFailedCreateUserFmt     = "failed to create user: %w"
	errFailedAddUserToGroupFmt = "failed to add user %s to group %s: %w"
	errFailedRollbackFmt       = "%w (rollback of user %s failed: %v)"
	errFailedListGroupsFmt     = "failed to list groups for user %s: %w"
	errFailedCheckExistenceFmt = "failed to check existing users by %s: %w"
	filterEqualsFmt            = `%s = "%s"`
)

// Client talks to one Cognito user pool.
type Client struct {
	svc        cognitoidentityprovideriface.CognitoIdentityProviderAPI
	userPoolID string
}

func NewClient(sess *session.Session, userPoolID string) *Client {
	return NewClientWithAPI(cip.New(sess), userPoolID)
}

func NewClientWithAPI(svc cognitoidentityprovideriface.CognitoIdentityProviderAPI, userPoolID string) *Client {
	return &Client{svc: svc, userPoolID: userPoolID}
}

// UserExists reports whether any account already uses email or phoneNumber.
// A filter may name only one attribute, so each is queried separately.
func (c *Client) UserExists(ctx context.Context, email, phoneNumber string) (bool, error) {
	for _, q := range []struct{ attr, value string }{
		{user.AttrEmail, email},
		{user.AttrPhoneNumber, phoneNumber},
	} {
		if q.value == "" {
			continue
		}
		out, err := c.svc.ListUsersWithContext(ctx, &cip.ListUsersInput{
			UserPoolId:      aws.String(c.userPoolID),
			Filter:          aws.String(equalsFilter(q.attr, q.value)),
			Limit:           aws.Int64(existenceCheckLimit),
			AttributesToGet: []*string{aws.String(user.AttrSub)},
		})
		if err != nil {
			return false, fmt.Errorf(errFailedCheckExistenceFmt, q.attr, err)
		}
		if len(out.Users) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// CreateUser creates the account with email as username and adds it to the
// group named after its role. It returns the new username. When the group
// assignment fails the account is deleted again.
func (c *Client) CreateUser(ctx context.Context, in user.CreateUserInput) (string, error) {
	attrs := []*cip.AttributeType{
		attribute(user.AttrName, in.FullName),
		attribute(user.AttrEmail, in.Email),
		attribute(user.AttrPhoneNumber, in.PhoneNumber),
	}
	if in.Picture != "" {
		attrs = append(attrs, attribute(user.AttrPicture, in.Picture))
	}

	out, err := c.svc.AdminCreateUserWithContext(ctx, &cip.AdminCreateUserInput{
		UserPoolId:     aws.String(c.userPoolID),
		Username:       aws.String(in.Email),
		UserAttributes: attrs,
	})
	if err != nil {
		if isAWSCode(err, cip.ErrCodeUsernameExistsException) {
			return "", fmt.Errorf("%w: %s", user.ErrAlreadyExists, in.Email)
		}
		return "", fmt.Errorf(errFailedCreateUserFmt, err)
	}

	username := in.Email
	if out.User != nil && out.User.Username != nil {
		username = aws.StringValue(out.User.Username)
	}

	if _, err := c.svc.AdminAddUserToGroupWithContext(ctx, &cip.AdminAddUserToGroupInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(username),
		GroupName:  aws.String(string(in.Role)),
	}); err != nil {
		groupErr := fmt.Errorf(errFailedAddUserToGroupFmt, username, in.Role, err)
		// A user without a group holds no role and would block a retry with 409.
		if _, delErr := c.svc.AdminDeleteUserWithContext(ctx, &cip.AdminDeleteUserInput{
			UserPoolId: aws.String(c.userPoolID),
			Username:   aws.String(username),
		}); delErr != nil {
			return "", fmt.Errorf(errFailedRollbackFmt, groupErr, username, delErr)
		}
		return "", groupErr
	}

	return username, nil
}

// ListUsers returns one page of users, with group memberships when asked.
func (c *Client) ListUsers(ctx context.Context, in user.ListUsersInput) (*user.ListUsersOutput, error) {
	req := &cip.ListUsersInput{
		UserPoolId: aws.String(c.userPoolID),
	}
	if in.Limit > 0 {
		req.Limit = aws.Int64(in.Limit)
	}
	if in.PaginationToken != "" {
		req.PaginationToken = aws.String(in.PaginationToken)
	}
	for _, attr := range in.Attributes {
		req.AttributesToGet = append(req.AttributesToGet, aws.String(attr))
	}

	out, err := c.svc.ListUsersWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf(errFailedListUsersFmt, err)
	}

	result := &user.ListUsersOutput{
		Users:           make([]user.User, 0, len(out.Users)),
		PaginationToken: aws.StringValue(out.PaginationToken),
	}
	for _, u := range out.Users {
		mapped := toUser(u)
		if in.WithGroups {
			groups, err := c.ListGroupsForUser(ctx, mapped.Username)
			if err != nil {
				return nil, err
			}
			mapped.Groups = groups
		}
		result.Users = append(result.Users, mapped)
	}

	return result, nil
}

func (c *Client) ListGroupsForUser(ctx context.Context, username string) ([]string, error) {
	groups := []string{}
	input := &cip.AdminListGroupsForUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(username),
	}

	for {
		out, err := c.svc.AdminListGroupsForUserWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf(errFailedListGroupsFmt, username, err)
		}
		for _, g := range out.Groups {
			groups = append(groups, aws.StringValue(g.GroupName))
		}
		if aws.StringValue(out.NextToken) == "" {
			return groups, nil
		}
		input.NextToken = out.NextToken
	}
}

func toUser(u *cip.UserType) user.User {
	out := user.User{
		Username:   aws.StringValue(u.Username),
		Attributes: make(map[string]string, len(u.Attributes)),
		Enabled:    aws.BoolValue(u.Enabled),
		Status:     aws.StringValue(u.UserStatus),
		CreatedAt:  aws.TimeValue(u.UserCreateDate),
	}
	for _, a := range u.Attributes {
		out.Attributes[aws.StringValue(a.Name)] = aws.StringValue(a.Value)
	}
	return out
}

func attribute(name, value string) *cip.AttributeType {
	return &cip.AttributeType{Name: aws.String(name), Value: aws.String(value)}
}

func equalsFilter(attr, value string) string {
	escaped := strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), `"`, `\"`)
	return fmt.Sprintf(filterEqualsFmt, attr, escaped)
}

func isAWSCode(err error, code string) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == code
}
