// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package code_scout

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all scout routes with the router.
//
// Description:
//
//	Registers all /v1/scout/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/scout/search - Hybrid code search
//	POST /v1/scout/search/advanced - Reflexion-driven search
//	POST /v1/scout/context - File context bundle
//	POST /v1/scout/types - Type definition search
//	POST /v1/scout/similar - Similar-code search
//	POST /v1/scout/memories/search - Conversation memory search
//	POST /v1/scout/memories - Save a conversation memory
//	GET  /v1/scout/status - Index status
//	GET  /v1/scout/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	scout := rg.Group("/scout")
	{
		// Search tools
		scout.POST("/search", handlers.HandleSearch)
		scout.POST("/search/advanced", handlers.HandleAdvancedSearch)
		scout.POST("/types", handlers.HandleTypes)
		scout.POST("/similar", handlers.HandleSimilar)

		// Context assembly
		scout.POST("/context", handlers.HandleContext)

		// Conversation memory
		scout.POST("/memories/search", handlers.HandleMemoriesSearch)
		scout.POST("/memories", handlers.HandleSaveMemory)

		// Health and status
		scout.GET("/status", handlers.HandleStatus)
		scout.GET("/health", handlers.HandleHealth)
	}
}
