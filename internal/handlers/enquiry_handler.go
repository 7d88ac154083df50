package handlers

import (
	"net/http"

	"github.com/dipiu-foods/dipiu-api/internal/models"
	"github.com/dipiu-foods/dipiu-api/internal/services"
	"github.com/gin-gonic/gin"
)

// SendEnquiry validates a wholesale enquiry and relays it by email. Missing
// required fields come back as 400 before any send is attempted; a relay
// failure is a 500 with a generic message.
func SendEnquiry(es *services.EnquiryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var enquiry models.WholesaleEnquiry
		if err := c.ShouldBindJSON(&enquiry); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		if enquiry.Email == "" || enquiry.ContactPerson == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("Email and Contact Person are required"))
			return
		}

		if err := es.SendEnquiry(c.Request.Context(), &enquiry); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse("Failed to send email"))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Email sent successfully"))
	}
}
