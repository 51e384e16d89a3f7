package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/contentgate/adapters/session"
	"github.com/artpar/contentgate/core/runtime"
	"github.com/artpar/contentgate/pkg/jsonapi"
)

// authRoutes serves sign-in, sign-out, the current item and the first-item
// bootstrap flow.
func (c *Channel) authRoutes(r chi.Router) {
	r.Post("/signin", c.handleSignin)
	r.Post("/signout", c.handleSignout)
	r.Get("/me", c.handleMe)
	r.Get("/init", c.handleInitStatus)
	r.Post("/init", c.handleInit)
}

// handleSignin accepts {"<identity field>": ..., "<secret field>": ...}.
func (c *Channel) handleSignin(w http.ResponseWriter, r *http.Request) {
	cfg := c.auth.Config()

	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		jsonapi.WriteBadRequest(w, "invalid request body")
		return
	}
	identity, _ := body[cfg.IdentityField].(string)
	secret, _ := body[cfg.SecretField].(string)

	sess, err := c.auth.Authenticate(r.Context(), identity, secret)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	c.startSession(w, r, sess, http.StatusOK)
}

func (c *Channel) handleSignout(w http.ResponseWriter, r *http.Request) {
	sessionOf(r).End()
	jsonapi.WriteNoContent(w)
}

func (c *Channel) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOf(r).Session()
	if !ok {
		jsonapi.WriteUnauthorized(w, "")
		return
	}
	item, err := c.auth.Item(r.Context(), sess)
	if errors.Is(err, runtime.ErrNotFound) {
		// The item was deleted after sign-in.
		jsonapi.WriteUnauthorized(w, "")
		return
	}
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	d, _ := c.rt.Registry().Get(sess.ListKey)
	jsonapi.Write(w, http.StatusOK, jsonapi.NewDocument().
		Resource(c.resource(d, item)).
		Meta("session", sess.Data).
		Build())
}

// handleInitStatus reports whether the first item still has to be created
// and which fields the init form accepts.
func (c *Channel) handleInitStatus(w http.ResponseWriter, r *http.Request) {
	required, err := c.setupRequired(r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	fields := c.auth.InitFields()
	if fields == nil {
		fields = []string{}
	}
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{
		"setupRequired": required,
		"listKey":       c.auth.Config().ListKey,
		"fields":        fields,
	})
}

func (c *Channel) handleInit(w http.ResponseWriter, r *http.Request) {
	if !c.auth.InitEnabled() {
		jsonapi.WriteNotFound(w, "init flow")
		return
	}
	d, _ := c.rt.Registry().Get(c.auth.Config().ListKey)
	data, ok := c.decodeData(w, r, d, true)
	if !ok {
		return
	}
	sess, err := c.auth.InitFirstItem(r.Context(), data)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	c.startSession(w, r, sess, http.StatusCreated)
}

// startSession sets the session cookie and writes the signed-in item with
// the token in meta, for clients that prefer bearer tokens.
func (c *Channel) startSession(w http.ResponseWriter, r *http.Request, sess session.Data, status int) {
	token, err := sessionOf(r).Start(sess)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	item, err := c.auth.Item(r.Context(), sess)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	d, _ := c.rt.Registry().Get(sess.ListKey)
	jsonapi.Write(w, status, jsonapi.NewDocument().
		Resource(c.resource(d, item)).
		Meta("sessionToken", token).
		Build())
}

// setupRequired is false when the init flow is disabled.
func (c *Channel) setupRequired(r *http.Request) (bool, error) {
	if !c.auth.InitEnabled() {
		return false, nil
	}
	return c.auth.SetupRequired(r.Context())
}
