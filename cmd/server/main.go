// Copyright 2025 HealthTriage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/healthtriage/gcp-go-video-triage/internal/cloud"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/citations"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/model"
	"github.com/healthtriage/gcp-go-video-triage/internal/core/services"
	"github.com/healthtriage/gcp-go-video-triage/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		TriageRouter(apiV1)
		PatientRouter(apiV1)
		QueueRouter(apiV1)
		CitationRouter(apiV1)
		VideoUpload(apiV1)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// createTriageRequest is the submission payload for a new triage request.
type createTriageRequest struct {
	PatientId      string   `json:"patient_id" binding:"required"`
	VideoUrl       string   `json:"video_url" binding:"required"`
	Symptoms       []string `json:"symptoms"`
	AdditionalInfo string   `json:"additional_info"`
}

// TriageRouter sets up the request lifecycle routes: submit, fetch, and
// signed playback URL.
func TriageRouter(r *gin.RouterGroup) {
	triage := r.Group("/triage")
	{
		// Submitting a request writes the PENDING record first, then
		// publishes the creation event. Publish failure leaves a PENDING
		// record with no processor, which a clinician can see and resubmit;
		// the reverse order could process a record that was never stored.
		triage.POST("", func(c *gin.Context) {
			var in createTriageRequest
			if err := c.ShouldBindJSON(&in); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			request := &model.TriageRequest{
				RequestId:      uuid.NewString(),
				PatientId:      in.PatientId,
				VideoUrl:       in.VideoUrl,
				Symptoms:       in.Symptoms,
				AdditionalInfo: in.AdditionalInfo,
				Status:         model.StatusPending,
				CreatedAt:      time.Now().UTC(),
				UpdatedAt:      time.Now().UTC(),
			}
			if err := state.triageService.Create(c, request); err != nil {
				log.Printf("failed to create triage request: %v", err)
				c.Status(http.StatusInternalServerError)
				return
			}

			event := &cloud.TriageCreatedEvent{
				RequestId: request.RequestId,
				PatientId: request.PatientId,
				VideoUrl:  request.VideoUrl,
			}
			payload, _ := json.Marshal(event)
			topicName := state.config.Topics["TriageCreated"]
			result := state.cloud.PubsubClient.Topic(topicName).Publish(c, &pubsub.Message{Data: payload})
			if _, err := result.Get(c); err != nil {
				log.Printf("failed to publish creation event for %s: %v", request.RequestId, err)
				c.JSON(http.StatusAccepted, gin.H{
					"request_id": request.RequestId,
					"status":     request.Status,
					"warning":    "request stored but processing not yet triggered",
				})
				return
			}

			c.JSON(http.StatusCreated, gin.H{
				"request_id": request.RequestId,
				"status":     request.Status,
			})
		})

		triage.GET("/:id", func(c *gin.Context) {
			out, err := state.triageService.Get(c, c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		triage.GET("/:id/video", func(c *gin.Context) {
			request, err := state.triageService.Get(c, c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
				return
			}
			signedURL, err := state.videoService.GenerateSignedURL(c, request.VideoUrl, services.DefaultSignedURLExpiry)
			if err != nil {
				log.Printf("failed to sign video URL for %s: %v", request.RequestId, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}
}

// PatientRouter sets up the patient-facing listing route.
func PatientRouter(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("/:id/requests", func(c *gin.Context) {
			out, err := state.triageService.ListByPatient(c, c.Param("id"))
			if err != nil {
				log.Printf("failed to list requests for patient %s: %v", c.Param("id"), err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

// QueueRouter sets up the clinician review queue route.
func QueueRouter(r *gin.RouterGroup) {
	r.GET("/queue", func(c *gin.Context) {
		out, err := state.triageService.ListQueue(c)
		if err != nil {
			log.Printf("failed to list review queue: %v", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}

// CitationRouter sets up the trusted-source citation lookup route.
func CitationRouter(r *gin.RouterGroup) {
	r.GET("/citations", func(c *gin.Context) {
		query := c.Query("q")
		if len(query) == 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		count, err := strconv.Atoi(c.DefaultQuery("count", "5"))
		if err != nil {
			count = 5
		}

		results, err := state.searcher.Search(c, query, count)
		if err != nil {
			log.Printf("citation search failed: %v", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, citations.FilterAndTag(results))
	})
}

// VideoUpload sets up the route for uploading symptom videos to the intake
// bucket. The response carries the gs:// locator to submit with the triage
// request.
func VideoUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		upload.POST("", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			bucketName := state.config.Storage.VideoBucket
			bucket := state.cloud.StorageClient.Bucket(bucketName)

			locators := make([]string, 0, len(files))
			for _, file := range files {
				localPath := filepath.Join(os.TempDir(), file.Filename)
				if err := c.SaveUploadedFile(file, localPath); err != nil {
					c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
					return
				}

				content, err := os.ReadFile(localPath)
				if err != nil {
					log.Println(err)
					c.Status(http.StatusInternalServerError)
					return
				}
				objectName := uuid.NewString() + filepath.Ext(file.Filename)
				wc := bucket.Object(objectName).NewWriter(c)
				wc.ContentType = "video/mp4"
				if _, err = wc.Write(content); err != nil {
					c.String(http.StatusInternalServerError, "write file to bucket err: %s", err.Error())
					return
				}
				if err := wc.Close(); err != nil {
					log.Printf("failed to close bucket handle: %v\n", err)
				}
				if err := os.Remove(localPath); err != nil {
					log.Printf("failed to remove file from server: %v\n", err)
				}
				locators = append(locators, "gs://"+bucketName+"/"+objectName)
			}
			c.JSON(http.StatusOK, gin.H{"videos": locators})
		})
	}
}
