package opportunity

import (
	"errors"
	"strconv"
	"strings"

	"github.com/eduoppbot/eduoppbot/model"
	"github.com/eduoppbot/eduoppbot/services"
	"github.com/eduoppbot/eduoppbot/utils/response"
	"github.com/eduoppbot/eduoppbot/utils/validation"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultRecommendLimit = 10
	maxRecommendLimit     = 50
)

// OpportunityHandler handles catalog, subscription and recommendation endpoints
type OpportunityHandler struct {
	opportunityService *services.OpportunityService
	recommender        *services.RecommendationService
	validator          *validation.Validator
}

// NewOpportunityHandler creates a new opportunity handler
func NewOpportunityHandler(opportunityService *services.OpportunityService, recommender *services.RecommendationService) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		recommender:        recommender,
		validator:          validation.NewValidator(),
	}
}

type createOpportunityPayload struct {
	services.CreateOpportunityRequest
	CreatedBy uint `json:"created_by" validate:"required"`
}

type subscriptionPayload struct {
	UserID uint `json:"user_id" validate:"required"`
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// CreateOpportunity handles POST /api/v1/opportunities
func (h *OpportunityHandler) CreateOpportunity(c *fiber.Ctx) error {
	var payload createOpportunityPayload
	if err := c.BodyParser(&payload); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(payload); err != nil {
		return response.ValidationError(c, err)
	}

	opportunity, err := h.opportunityService.CreateOpportunity(c.Context(), payload.CreateOpportunityRequest, payload.CreatedBy)
	if err != nil {
		return response.InternalServerError(c, "Failed to create opportunity")
	}
	return response.Created(c, opportunity)
}

// GetOpportunity handles GET /api/v1/opportunities/:id
func (h *OpportunityHandler) GetOpportunity(c *fiber.Ctx) error {
	opportunityID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid opportunity ID")
	}

	opportunity, err := h.opportunityService.GetOpportunity(c.Context(), opportunityID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Opportunity not found")
		}
		return response.InternalServerError(c, "Failed to fetch opportunity")
	}
	return response.Success(c, opportunity)
}

// SearchOpportunities handles GET /api/v1/opportunities
func (h *OpportunityHandler) SearchOpportunities(c *fiber.Ctx) error {
	filter := services.SearchFilter{
		Query:    c.Query("q"),
		Type:     model.OpportunityType(c.Query("type")),
		Location: c.Query("location"),
		Language: c.Query("language"),
		Limit:    c.QueryInt("limit"),
		Offset:   c.QueryInt("offset"),
	}
	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	results, err := h.opportunityService.Search(c.Context(), filter)
	if err != nil {
		return response.InternalServerError(c, "Failed to search opportunities")
	}
	return response.Success(c, fiber.Map{
		"opportunities": results,
		"count":         len(results),
	})
}

// UpdateOpportunity handles PUT /api/v1/opportunities/:id
func (h *OpportunityHandler) UpdateOpportunity(c *fiber.Ctx) error {
	opportunityID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid opportunity ID")
	}

	var req services.UpdateOpportunityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	opportunity, err := h.opportunityService.UpdateOpportunity(c.Context(), opportunityID, req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Opportunity not found")
		}
		return response.InternalServerError(c, "Failed to update opportunity")
	}
	return response.Success(c, opportunity)
}

// DeleteOpportunity handles DELETE /api/v1/opportunities/:id
func (h *OpportunityHandler) DeleteOpportunity(c *fiber.Ctx) error {
	opportunityID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid opportunity ID")
	}

	if err := h.opportunityService.DeleteOpportunity(c.Context(), opportunityID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Opportunity not found")
		}
		return response.InternalServerError(c, "Failed to delete opportunity")
	}
	return response.SuccessWithMessage(c, "Opportunity deleted", nil)
}

// Subscribe handles POST /api/v1/opportunities/:id/subscribe
func (h *OpportunityHandler) Subscribe(c *fiber.Ctx) error {
	opportunityID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid opportunity ID")
	}

	var payload subscriptionPayload
	if err := c.BodyParser(&payload); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(payload); err != nil {
		return response.ValidationError(c, err)
	}

	subscription, err := h.opportunityService.Subscribe(c.Context(), opportunityID, payload.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return response.NotFound(c, "Opportunity not found")
		case errors.Is(err, services.ErrAlreadySubscribed):
			return response.SuccessWithMessage(c, "Already subscribed", nil)
		default:
			return response.InternalServerError(c, "Failed to subscribe")
		}
	}
	return response.Created(c, subscription)
}

// Unsubscribe handles POST /api/v1/opportunities/:id/unsubscribe
func (h *OpportunityHandler) Unsubscribe(c *fiber.Ctx) error {
	opportunityID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid opportunity ID")
	}

	var payload subscriptionPayload
	if err := c.BodyParser(&payload); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(payload); err != nil {
		return response.ValidationError(c, err)
	}

	if err := h.opportunityService.Unsubscribe(c.Context(), opportunityID, payload.UserID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Subscription not found")
		}
		return response.InternalServerError(c, "Failed to unsubscribe")
	}
	return response.SuccessWithMessage(c, "Unsubscribed", nil)
}

// GetUserSubscriptions handles GET /api/v1/users/:id/subscriptions
func (h *OpportunityHandler) GetUserSubscriptions(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	subscriptions, err := h.opportunityService.GetUserSubscriptions(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch subscriptions")
	}
	return response.Success(c, fiber.Map{
		"subscriptions": subscriptions,
		"count":         len(subscriptions),
	})
}

// GetRecommendations handles GET /api/v1/users/:id/recommendations
func (h *OpportunityHandler) GetRecommendations(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	limit := c.QueryInt("limit", defaultRecommendLimit)
	if limit <= 0 || limit > maxRecommendLimit {
		return response.BadRequest(c, "Limit must be between 1 and 50")
	}

	recommendations, err := h.recommender.Recommend(c.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to compute recommendations")
	}
	return response.Success(c, fiber.Map{
		"recommendations": recommendations,
		"count":           len(recommendations),
	})
}
