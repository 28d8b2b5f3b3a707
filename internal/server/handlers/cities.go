package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CityLister interface {
	Names() []string
}

type CitiesHandler struct {
	cities CityLister
}

func NewCitiesHandler(cities CityLister) *CitiesHandler {
	return &CitiesHandler{cities: cities}
}

func (h *CitiesHandler) List(c *gin.Context) {
	names := h.cities.Names()
	c.JSON(http.StatusOK, CitiesResponse{Cities: names, Count: len(names)})
}
