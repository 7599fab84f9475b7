package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Reconcile(c *gin.Context) {
	if _, ok := s.requireAdmin(c); !ok {
		return
	}

	result, err := s.reconciler.Run(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ReconcileTenant(c *gin.Context) {
	tenant, ok := s.resolveTenant(c)
	if !ok {
		return
	}

	result, err := s.reconciler.RunTenant(c.Request.Context(), tenant.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
