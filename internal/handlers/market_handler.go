package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dipiu-foods/dipiu-api/internal/models"
	"github.com/dipiu-foods/dipiu-api/internal/services"
	"github.com/dipiu-foods/dipiu-api/internal/stream"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListUpcomingMarkets returns the current upcoming snapshot: active markets
// dated today or later in the reference timezone, ascending by date.
func ListUpcomingMarkets(ms *services.MarketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		markets, err := ms.ListUpcomingMarkets(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(markets, len(markets)))
	}
}

// ListAllMarkets returns every market, descending by date, for the admin
// management table.
func ListAllMarkets(ms *services.MarketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		markets, err := ms.ListAllMarkets(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(markets, len(markets)))
	}
}

// StreamMarkets relays a watcher's live snapshots as server-sent events
// until the client disconnects. Each "markets" event carries the full
// result set; failures arrive as "error" events with the list unchanged on
// the client side.
func StreamMarkets(w *stream.Watcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := w.Subscribe()
		defer sub.Unsubscribe()

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		c.Stream(func(io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case snap, ok := <-sub.C:
				if !ok {
					return false
				}
				if snap.Err != nil {
					c.SSEvent("error", snap.Err.Error())
					return true
				}
				c.SSEvent("markets", snap.Markets)
				return true
			}
		})
	}
}

// CreateMarkets handles a create-mode form submission, expanding the date
// collection into one record per date. Rejected input is a client error;
// store failures are server errors, with the message reporting how many
// records were committed. Nothing is rolled back.
func CreateMarkets(ms *services.MarketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.MarketForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		created, err := ms.CreateFromForm(c.Request.Context(), &form)
		if err != nil {
			c.JSON(marketErrorStatus(err), models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{"created": created}, "markets created successfully"))
	}
}

// UpdateMarket handles an edit-mode form submission against an existing
// record. Only the first of the form's dates is applied.
func UpdateMarket(ms *services.MarketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := marketID(c)
		if !ok {
			return
		}

		var form models.MarketForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		if err := ms.EditFromForm(c.Request.Context(), id, &form); err != nil {
			c.JSON(marketErrorStatus(err), models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "market updated successfully"))
	}
}

// DeleteMarket permanently removes a record. The confirm=true query flag is
// the destructive-intent contract: without it nothing is deleted.
func DeleteMarket(ms *services.MarketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := marketID(c)
		if !ok {
			return
		}

		if c.Query("confirm") != "true" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("deletion must be confirmed with confirm=true"))
			return
		}

		if err := ms.DeleteMarket(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "market deleted successfully"))
	}
}

// marketErrorStatus maps rejected input to a client error; everything else
// is a write failure.
func marketErrorStatus(err error) int {
	if errors.Is(err, services.ErrInvalidMarket) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func marketID(c *gin.Context) (primitive.ObjectID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("market ID is required"))
		return primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid market ID format"))
		return primitive.NilObjectID, false
	}
	return id, true
}
