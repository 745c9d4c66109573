package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/image-studio/internal/catalog"
	"github.com/gin-gonic/gin"
)

// ListModels returns the catalog in display order
func ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": catalog.Models()})
}

// GetModel resolves a model id. Unknown ids resolve to the default model, as the
// studio does when selecting.
func GetModel(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Lookup(c.Param("id")))
}
