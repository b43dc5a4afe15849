package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"facture/internal/model"
	"facture/internal/repository"
	ws "facture/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const clientSearchLimit = 20

// DTOs
type ClientRequest struct {
	Name    string `json:"name" binding:"required"`
	ICE     string `json:"ice" binding:"required"`
	City    string `json:"city" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
}

type ClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ICE       string `json:"ice"`
	City      string `json:"city"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// ClientEvent is the websocket payload of client changes.
type ClientEvent struct {
	Action string         `json:"action"` // created, updated, deleted
	Client ClientResponse `json:"client"`
}

type ClientService interface {
	GetClients(ctx context.Context) ([]ClientResponse, error)
	SearchClients(ctx context.Context, query string) ([]ClientResponse, error)
	GetClient(ctx context.Context, id string) (ClientResponse, error)
	CreateClient(ctx context.Context, actor string, req ClientRequest) (ClientResponse, error)
	UpdateClient(ctx context.Context, actor, id string, req ClientRequest) (ClientResponse, error)
	DeleteClient(ctx context.Context, actor, id string) error
}

type clientService struct {
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewClientService(
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ClientService {
	return &clientService{
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

func toClientResponse(c *model.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		ICE:       c.ICE,
		City:      c.City,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func validateClient(req *ClientRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.ICE = strings.TrimSpace(req.ICE)
	req.City = strings.TrimSpace(req.City)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Name == "":
		return invalidf("client name is required")
	case !iceRe.MatchString(req.ICE):
		return invalidf("ICE must be exactly %d digits", model.ICELength)
	case req.City == "":
		return invalidf("client city is required")
	}
	return nil
}

func parseClientID(id string) (uuid.UUID, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, invalidf("invalid client id")
	}
	return clientID, nil
}

func (s *clientService) GetClients(ctx context.Context) ([]ClientResponse, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return toClientResponses(clients), nil
}

func (s *clientService) SearchClients(ctx context.Context, query string) ([]ClientResponse, error) {
	clients, err := s.clientRepo.Search(ctx, query, clientSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	return toClientResponses(clients), nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (ClientResponse, error) {
	clientID, err := parseClientID(id)
	if err != nil {
		return ClientResponse{}, err
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return ClientResponse{}, lookupErr("client", err)
	}
	return toClientResponse(client), nil
}

func (s *clientService) CreateClient(ctx context.Context, actor string, req ClientRequest) (ClientResponse, error) {
	if err := validateClient(&req); err != nil {
		return ClientResponse{}, err
	}

	client := model.Client{
		Name:    req.Name,
		ICE:     req.ICE,
		City:    req.City,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureICEFree(txCtx, req.ICE, uuid.Nil); err != nil {
			return err
		}
		if err := s.clientRepo.Create(txCtx, &client); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("a client with ICE %s %w", req.ICE, ErrConflict)
			}
			return fmt.Errorf("failed to create client: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateClient, client.ID.String(), client.Name, req)
	})
	if err != nil {
		return ClientResponse{}, err
	}

	res := toClientResponse(&client)
	s.hub.Publish(ws.EventClientChanged, ClientEvent{Action: "created", Client: res})
	return res, nil
}

func (s *clientService) UpdateClient(ctx context.Context, actor, id string, req ClientRequest) (ClientResponse, error) {
	clientID, err := parseClientID(id)
	if err != nil {
		return ClientResponse{}, err
	}
	if err := validateClient(&req); err != nil {
		return ClientResponse{}, err
	}

	var client *model.Client
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		client, err = s.clientRepo.FindByID(txCtx, clientID)
		if err != nil {
			return lookupErr("client", err)
		}
		if err := s.ensureICEFree(txCtx, req.ICE, clientID); err != nil {
			return err
		}

		client.Name = req.Name
		client.ICE = req.ICE
		client.City = req.City
		client.Address = req.Address
		client.Phone = req.Phone
		client.Email = req.Email

		if err := s.clientRepo.Update(txCtx, client); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("a client with ICE %s %w", req.ICE, ErrConflict)
			}
			return fmt.Errorf("failed to update client: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateClient, client.ID.String(), client.Name, req)
	})
	if err != nil {
		return ClientResponse{}, err
	}

	res := toClientResponse(client)
	s.hub.Publish(ws.EventClientChanged, ClientEvent{Action: "updated", Client: res})
	return res, nil
}

// DeleteClient refuses to delete a client whose ICE appears on an invoice.
func (s *clientService) DeleteClient(ctx context.Context, actor, id string) error {
	clientID, err := parseClientID(id)
	if err != nil {
		return err
	}

	var client *model.Client
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		client, err = s.clientRepo.FindByID(txCtx, clientID)
		if err != nil {
			return lookupErr("client", err)
		}

		used, err := s.invoiceRepo.CountByClientICE(txCtx, client.ICE)
		if err != nil {
			return fmt.Errorf("failed to check client invoices: %w", err)
		}
		if used > 0 {
			return fmt.Errorf("%w: client %s has %d invoices", ErrInUse, client.Name, used)
		}

		if err := s.clientRepo.Delete(txCtx, clientID); err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteClient, client.ID.String(), client.Name, map[string]string{"deleted_id": id})
	})
	if err != nil {
		return err
	}

	s.hub.Publish(ws.EventClientChanged, ClientEvent{Action: "deleted", Client: toClientResponse(client)})
	return nil
}

func (s *clientService) ensureICEFree(ctx context.Context, ice string, self uuid.UUID) error {
	existing, err := s.clientRepo.FindByICE(ctx, ice)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check ICE: %w", err)
	}
	if existing.ID != self {
		return fmt.Errorf("a client with ICE %s %w", ice, ErrConflict)
	}
	return nil
}

func toClientResponses(clients []model.Client) []ClientResponse {
	res := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		res = append(res, toClientResponse(&clients[i]))
	}
	return res
}
