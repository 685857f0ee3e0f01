// README: Firebase Admin SDK initialisation: ID token verifier and Realtime Database client.
package infra

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// FirebaseToken is what the auth middleware needs from a verified token.
// Both the Firebase and the local JWT verifiers produce it.
type FirebaseToken struct {
	UID    string
	Claims map[string]interface{}
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error)
}

// newFirebaseApp uses credentialsFile when set, application-default
// credentials otherwise.
func newFirebaseApp(ctx context.Context, cfg *firebase.Config, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return app, nil
}

type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier verifies partner ID tokens issued for projectID.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	app, err := newFirebaseApp(ctx, &firebase.Config{ProjectID: projectID}, credentialsFile)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*FirebaseToken, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &FirebaseToken{UID: tok.UID, Claims: tok.Claims}, nil
}

// NewFirebaseDatabase returns a Realtime Database client for databaseURL,
// used to publish live courier positions.
func NewFirebaseDatabase(ctx context.Context, databaseURL, credentialsFile string) (*db.Client, error) {
	app, err := newFirebaseApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, credentialsFile)
	if err != nil {
		return nil, err
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase database client: %w", err)
	}
	return client, nil
}
