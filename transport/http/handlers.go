package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/internal/eth"
	"github.com/layer-3/signet/service"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

// Handlers contains HTTP handlers for the local signing API
type Handlers struct {
	auth     *service.AuthFlow
	intents  *service.IntentBuilder
	resolver *service.KeyResolver
	logger   *zap.Logger
}

// NewHandlers creates new handlers
func NewHandlers(auth *service.AuthFlow, intents *service.IntentBuilder, resolver *service.KeyResolver, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		auth:     auth,
		intents:  intents,
		resolver: resolver,
		logger:   logger,
	}
}

// credentialRequest carries either a mnemonic or a keystore with its password.
// The keystore may be sent as a JSON object or as a string holding one.
type credentialRequest struct {
	Mnemonic   string          `json:"mnemonic"`
	Passphrase string          `json:"passphrase"`
	Keystore   json.RawMessage `json:"keystore"`
	Password   string          `json:"password"`
}

func (r credentialRequest) credential() (core.Credential, error) {
	ks, err := keystoreBytes(r.Keystore)
	if err != nil {
		return nil, err
	}
	return core.NewCredential(r.Mnemonic, r.Passphrase, ks, r.Password)
}

func keystoreBytes(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, core.ErrInvalidKeystoreFormat
		}
		return []byte(s), nil
	}
	return raw, nil
}

// Health reports that the server is up
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Mnemonic generates a new phrase
func (h *Handlers) Mnemonic(c *gin.Context) {
	var req struct {
		Words int `json:"words"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}
	if req.Words == 0 {
		req.Words = 12
	}

	mnemonic, err := eth.NewMnemonicWords(req.Words)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mnemonic": mnemonic})
}

// Derive returns the wallet identity behind a mnemonic
func (h *Handlers) Derive(c *gin.Context) {
	var req struct {
		Mnemonic   string `json:"mnemonic" binding:"required"`
		Passphrase string `json:"passphrase"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	kp, err := eth.KeyPairFromMnemonic(req.Mnemonic, req.Passphrase)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer kp.Zero()

	c.JSON(http.StatusOK, gin.H{
		"address":    kp.Address,
		"public_key": kp.PublicKeyHex(),
		"path":       core.DerivationPath,
	})
}

// Backup encrypts the key behind a mnemonic into a keystore document
func (h *Handlers) Backup(c *gin.Context) {
	var req struct {
		Mnemonic   string `json:"mnemonic" binding:"required"`
		Passphrase string `json:"passphrase"`
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	kp, err := eth.KeyPairFromMnemonic(req.Mnemonic, req.Passphrase)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer kp.Zero()

	keystore, err := h.resolver.Codec().EncryptContext(c.Request.Context(), kp.PrivateKey, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	png, err := qrcode.Encode(kp.Address, qrcode.Medium, qrSize)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("Backup created", zap.String("address", kp.Address))
	c.JSON(http.StatusOK, gin.H{
		"address":  kp.Address,
		"keystore": json.RawMessage(keystore),
		"qr":       "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}

// Restore opens a keystore document and returns its address
func (h *Handlers) Restore(c *gin.Context) {
	var req struct {
		Keystore json.RawMessage `json:"keystore" binding:"required"`
		Password string          `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	data, err := keystoreBytes(req.Keystore)
	if err != nil {
		h.fail(c, err)
		return
	}

	kp, err := h.resolver.Resolve(c.Request.Context(), core.BackupCredential{Keystore: data, Password: req.Password})
	if err != nil {
		h.fail(c, err)
		return
	}
	defer kp.Zero()

	c.JSON(http.StatusOK, gin.H{"address": kp.Address})
}

// SignChallenge signs a login challenge fetched by the caller
func (h *Handlers) SignChallenge(c *gin.Context) {
	var req struct {
		credentialRequest
		Nonce string `json:"nonce" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cred, err := req.credential()
	if err != nil {
		h.fail(c, err)
		return
	}

	proof, err := h.auth.SignChallenge(c.Request.Context(), cred, req.Nonce)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, proof)
}

// Recover returns the address that signed a personal message
func (h *Handlers) Recover(c *gin.Context) {
	var req struct {
		Message   string `json:"message" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sig, err := eth.ParseSignature(req.Signature)
	if err != nil {
		h.fail(c, err)
		return
	}

	address, err := eth.RecoverAddress([]byte(req.Message), sig)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": address})
}

// SignIntent signs a send, buy or sell for the session's address
func (h *Handlers) SignIntent(c *gin.Context) {
	var req struct {
		credentialRequest
		Action string          `json:"action" binding:"required"`
		Amount decimal.Decimal `json:"amount"`
		To     string          `json:"to"`
		Nonce  string          `json:"nonce" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	address, err := authenticatedAddress(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	cred, err := req.credential()
	if err != nil {
		h.fail(c, err)
		return
	}

	intent, err := h.intents.Sign(c.Request.Context(), core.IntentRequest{
		Action:               core.Action(req.Action),
		Amount:               req.Amount,
		To:                   req.To,
		Credential:           cred,
		AuthenticatedAddress: address,
	}, req.Nonce)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal error"})
		return
	}

	h.logger.Debug("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidMnemonic),
		errors.Is(err, core.ErrInvalidCredential),
		errors.Is(err, core.ErrInvalidKeystoreFormat),
		errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidAddress),
		errors.Is(err, core.ErrInvalidAction),
		errors.Is(err, core.ErrNonceUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidPassword),
		errors.Is(err, core.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrAddressMismatch):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNonceReused):
		return http.StatusConflict
	case errors.Is(err, core.ErrSignatureSelfCheckFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
