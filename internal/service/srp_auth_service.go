package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tadglines/go-pkgs/crypto/srp"

	"github.com/SimpnicServerTeam/timesheet-session/internal/config"
	"github.com/SimpnicServerTeam/timesheet-session/internal/models"
	"github.com/SimpnicServerTeam/timesheet-session/internal/repository"
)

var _ SRPAuthGenerator = (*SRPAuthService)(nil)

// SRPAuthService is the development identity provider: SRP-6a login that ends in a token pair.
type SRPAuthService struct {
	userRepo  repository.UserRepository
	stateRepo repository.StateRepository
	tokenSvc  TokenIssuer
	cfg       config.SRPConfig
	now       func() time.Time
}

// NewSRPAuthService creates a new SRPAuthService
func NewSRPAuthService(
	userRepo repository.UserRepository,
	stateRepo repository.StateRepository,
	tokenSvc TokenIssuer,
	cfg config.SRPConfig,
) *SRPAuthService {
	return &SRPAuthService{
		userRepo:  userRepo,
		stateRepo: stateRepo,
		tokenSvc:  tokenSvc,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Register handles user registration
func (s *SRPAuthService) Register(ctx context.Context, req models.SRPRegisterRequest) (string, error) {
	if req.AuthID == "" || req.Salt == "" || req.Verifier == "" {
		log.Warn().Str("authID", req.AuthID).Msg("[SRPAuthService.Register] Missing required fields")
		return "", fmt.Errorf("authID, salt, and verifier cannot be empty")
	}
	if _, err := hex.DecodeString(req.Salt); err != nil {
		return "", fmt.Errorf("invalid salt hex format: %w", err)
	}
	if _, err := hex.DecodeString(req.Verifier); err != nil {
		return "", fmt.Errorf("invalid verifier hex format: %w", err)
	}

	user := &models.UserInfo{
		ID:          uuid.NewString(),
		AuthID:      req.AuthID,
		DisplayName: req.DisplayName,
		Salt:        req.Salt,
		Verifier:    req.Verifier,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return "", err
		}
		log.Error().Err(err).Str("authID", req.AuthID).Msg("[SRPAuthService.Register] Failed to register user")
		return "", fmt.Errorf("failed to register user: %w", err)
	}

	log.Info().Str("authID", req.AuthID).Str("userID", user.ID).Msg("[SRPAuthService.Register] User registered")
	return user.ID, nil
}

// ComputeB handles SRP step 1 (Server -> Client: salt, B)
func (s *SRPAuthService) ComputeB(ctx context.Context, req models.AuthStep1Request) (*models.AuthStep1Response, error) {
	userInfo, err := s.userRepo.GetUserInfoByAuthID(ctx, req.AuthID)
	if err != nil {
		log.Warn().Err(err).Str("authID", req.AuthID).Msg("[SRPAuthService.ComputeB] Failed to get credentials")
		return nil, fmt.Errorf("failed to get user credentials: %w", err)
	}

	verifier, err := hex.DecodeString(userInfo.Verifier)
	if err != nil {
		return nil, fmt.Errorf("invalid verifier hex format: %w", err)
	}
	salt, err := hex.DecodeString(userInfo.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt hex format: %w", err)
	}

	srpInstance, err := srp.NewSRP(s.cfg.Group, s.cfg.HashingAlgorithm.New, nil)
	if err != nil {
		log.Error().Err(err).Str("group", s.cfg.Group).Msg("[SRPAuthService.ComputeB] Failed to create SRP instance")
		return nil, fmt.Errorf("failed to create SRP instance: %w", err)
	}

	server := srpInstance.NewServerSession([]byte(req.AuthID), salt, verifier)
	B := server.GetB()

	state := models.AuthSessionState{
		AuthID: req.AuthID,
		Salt:   salt,
		Server: server,
		B:      B,
		Expiry: s.now().Add(s.cfg.AuthStateExpiry),
	}
	if purged, err := s.stateRepo.PurgeExpired(ctx, s.now()); err != nil {
		log.Warn().Err(err).Msg("[SRPAuthService.ComputeB] Failed to purge expired handshakes")
	} else if purged > 0 {
		log.Debug().Int("purged", purged).Msg("[SRPAuthService.ComputeB] Purged expired handshakes")
	}
	if err := s.stateRepo.SaveHandshake(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to store auth state: %w", err)
	}

	log.Debug().Str("authID", req.AuthID).Msg("[SRPAuthService.ComputeB] Returning salt and B")
	return &models.AuthStep1Response{
		Salt:    userInfo.Salt,
		ServerB: hex.EncodeToString(B),
	}, nil
}

// VerifyClientProof handles SRP step 2 (Client -> Server: A, M1) and returns Step 3 info (Server -> Client: M2, tokens)
func (s *SRPAuthService) VerifyClientProof(ctx context.Context, req models.AuthStep2Request) (*models.AuthStep3Response, error) {
	// Taking the handshake consumes it, so a failed proof needs a fresh step 1.
	state, err := s.stateRepo.TakeHandshake(ctx, req.AuthID)
	if err != nil {
		log.Warn().Err(err).Str("authID", req.AuthID).Msg("[SRPAuthService.VerifyClientProof] No auth state")
		return nil, fmt.Errorf("failed to retrieve authentication state: %w", err)
	}

	bytesA, err := decodeNonEmptyHex(req.ClientA)
	if err != nil {
		return nil, fmt.Errorf("invalid client A format: %w", err)
	}
	clientM1, err := decodeNonEmptyHex(req.ClientProofM1)
	if err != nil {
		return nil, fmt.Errorf("invalid client proof M1 format: %w", err)
	}

	server := state.Server
	if server == nil {
		return nil, fmt.Errorf("failed to create SRP server instance")
	}
	if _, err := server.ComputeKey(bytesA); err != nil {
		log.Warn().Err(err).Str("authID", req.AuthID).Msg("[SRPAuthService.VerifyClientProof] Failed to compute key")
		return nil, fmt.Errorf("failed to compute key: %w", err)
	}
	if !server.VerifyClientAuthenticator(clientM1) {
		log.Warn().Str("authID", req.AuthID).Msg("[SRPAuthService.VerifyClientProof] Client proof M1 verification failed")
		return nil, ErrInvalidClientProof
	}

	userInfo, err := s.userRepo.GetUserInfoByAuthID(ctx, req.AuthID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	tokens, err := s.tokenSvc.IssueTokens(ctx, userInfo.ID)
	if err != nil {
		log.Error().Err(err).Str("authID", req.AuthID).Msg("[SRPAuthService.VerifyClientProof] Failed to issue tokens")
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	log.Info().Str("authID", req.AuthID).Str("userID", userInfo.ID).Msg("[SRPAuthService.VerifyClientProof] Client authenticated")
	return &models.AuthStep3Response{
		ServerProofM2: hex.EncodeToString(server.ComputeAuthenticator(clientM1)),
		Tokens:        *tokens,
	}, nil
}

func decodeNonEmptyHex(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty value")
	}
	return hex.DecodeString(value)
}
