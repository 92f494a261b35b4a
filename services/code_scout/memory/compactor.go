// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/codescout/services/llm"
)

// Compaction defaults.
const (
	DefaultOlderThanDays = 30
	DefaultMinGroupSize  = 5

	deleteBatchSize = 100
	maxFilesKept    = 100

	summaryTemperature = 0.3
	summaryMaxTokens   = 2048

	compactionAgentType = "memory-compaction"
	compactionTaskType  = "compaction"
)

const summarySystemPrompt = `You compact old coding-session memories. Produce a concise but
comprehensive technical summary of the sessions you are given. Preserve all
decisions and file references exactly as stated. Group related work
thematically rather than chronologically. Reply with the summary only.`

// CompactOptions configure a compaction run.
type CompactOptions struct {
	// OlderThanDays selects memories older than this many days. Zero
	// means 30.
	OlderThanDays int

	// MinGroupSize is the smallest project group worth compacting. Zero
	// means 5.
	MinGroupSize int

	// DryRun reports what would happen without inserting or deleting.
	DryRun bool
}

// ProjectDetail is the per-project section of a compaction report.
type ProjectDetail struct {
	MemoriesFound int    `json:"memoriesFound"`
	Compacted     bool   `json:"compacted"`
	Reason        string `json:"reason,omitempty"`
}

// Report is the outcome of one compaction run.
type Report struct {
	MemoriesFetched   int                      `json:"memoriesFetched"`
	ProjectsProcessed int                      `json:"projectsProcessed"`
	GroupsCompacted   int                      `json:"groupsCompacted"`
	MemoriesDeleted   int                      `json:"memoriesDeleted"`
	MemoriesCreated   int                      `json:"memoriesCreated"`
	Errors            []string                 `json:"errors,omitempty"`
	ProjectDetails    map[string]ProjectDetail `json:"projectDetails"`
}

// Compactor folds old per-session memories into one summary per project.
type Compactor struct {
	store *Store
	llm   llm.Client
}

// NewCompactor builds a compactor. A nil LLM client switches summaries to
// the deterministic fallback format.
func NewCompactor(s *Store, client llm.Client) *Compactor {
	return &Compactor{store: s, llm: client}
}

// Run executes one compaction sweep.
//
// Description:
//
//	Fetches memories older than the cutoff, groups them by project, and
//	for each group of at least MinGroupSize inserts one compacted record
//	then deletes the sources. The sweep is not atomic: a delete failure
//	after the insert leaves both the compacted record and some sources
//	behind, which is reported but harmless for search. Cancellation is
//	honoured between project groups, not inside one.
//
// Inputs:
//
//	ctx - Context, checked between projects
//	opts - Cutoff, group-size floor, dry-run switch
//
// Outputs:
//
//	*Report - Full accounting; inspect Errors for partial failures
//	error - Non-nil only when the initial fetch fails or ctx is done
func (c *Compactor) Run(ctx context.Context, opts CompactOptions) (*Report, error) {
	ctx, span := tracer.Start(ctx, "memory.Compact")
	defer span.End()

	days := opts.OlderThanDays
	if days <= 0 {
		days = DefaultOlderThanDays
	}
	minGroup := opts.MinGroupSize
	if minGroup <= 0 {
		minGroup = DefaultMinGroupSize
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	slog.Info("Starting memory compaction",
		"cutoff", cutoff.Format(time.RFC3339), "min_group", minGroup, "dry_run", opts.DryRun)

	memories, err := c.store.FetchOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	report := &Report{
		MemoriesFetched: len(memories),
		ProjectDetails:  make(map[string]ProjectDetail),
	}

	groups := make(map[string][]ConversationMemory)
	for _, m := range memories {
		project := m.Project
		if project == "" {
			project = GeneralProject
		}
		groups[project] = append(groups[project], m)
	}

	projects := make([]string, 0, len(groups))
	for p := range groups {
		projects = append(projects, p)
	}
	sort.Strings(projects)

	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		group := groups[project]
		report.ProjectsProcessed++

		if len(group) < minGroup {
			report.ProjectDetails[project] = ProjectDetail{
				MemoriesFound: len(group),
				Reason:        fmt.Sprintf("below minimum group size %d", minGroup),
			}
			continue
		}

		c.compactGroup(ctx, project, group, opts.DryRun, report)
	}

	span.SetAttributes(
		attribute.Int("fetched", report.MemoriesFetched),
		attribute.Int("compacted", report.GroupsCompacted),
		attribute.Int("deleted", report.MemoriesDeleted),
	)
	slog.Info("Memory compaction complete",
		"fetched", report.MemoriesFetched,
		"groups", report.GroupsCompacted,
		"deleted", report.MemoriesDeleted,
		"errors", len(report.Errors))
	return report, nil
}

// compactGroup summarises and replaces one project group.
func (c *Compactor) compactGroup(ctx context.Context, project string, group []ConversationMemory, dryRun bool, report *Report) {
	sort.Slice(group, func(i, j int) bool { return group[i].Timestamp.Before(group[j].Timestamp) })

	preserved := collect(group)
	summary := c.summarize(ctx, project, group, preserved)

	start := group[0].Timestamp.Format("2006-01-02")
	end := group[len(group)-1].Timestamp.Format("2006-01-02")

	files := preserved.files
	if len(files) > maxFilesKept {
		files = files[:maxFilesKept]
	}
	compacted := ConversationMemory{
		SessionID:     fmt.Sprintf("compacted-%s-%s-%s", project, start, end),
		Summary:       summary,
		Decisions:     preserved.decisions,
		FilesModified: files,
		Project:       project,
		Topics:        preserved.topics,
		Timestamp:     time.Now().UTC(),
		AgentType:     compactionAgentType,
		Model:         c.summarizerModel(),
		TaskType:      compactionTaskType,
		Cost:          preserved.cost,
		InputTokens:   preserved.inputTokens,
		OutputTokens:  preserved.outputTokens,
	}

	if dryRun {
		slog.Info("Dry run, would compact",
			"project", project, "memories", len(group), "session_id", compacted.SessionID)
		report.GroupsCompacted++
		report.ProjectDetails[project] = ProjectDetail{
			MemoriesFound: len(group),
			Compacted:     true,
			Reason:        "dry run",
		}
		return
	}

	if _, err := c.store.Save(ctx, compacted); err != nil {
		msg := fmt.Sprintf("%s: inserting compacted memory: %v", project, err)
		report.Errors = append(report.Errors, msg)
		report.ProjectDetails[project] = ProjectDetail{MemoriesFound: len(group), Reason: msg}
		return
	}
	report.MemoriesCreated++
	report.GroupsCompacted++

	deleted := c.deleteAll(ctx, group, report)
	report.MemoriesDeleted += deleted
	report.ProjectDetails[project] = ProjectDetail{
		MemoriesFound: len(group),
		Compacted:     true,
	}
	slog.Info("Compacted project memories",
		"project", project, "sources", len(group), "deleted", deleted)
}

// deleteAll removes source memories in batches, logging per-delete errors
// without aborting the group.
func (c *Compactor) deleteAll(ctx context.Context, group []ConversationMemory, report *Report) int {
	deleted := 0
	for start := 0; start < len(group); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(group) {
			end = len(group)
		}
		for _, m := range group[start:end] {
			if m.ID == "" {
				continue
			}
			if err := c.store.Delete(ctx, m.ID); err != nil {
				slog.Warn("Failed to delete source memory", "id", m.ID, "error", err)
				report.Errors = append(report.Errors, fmt.Sprintf("deleting %s: %v", m.ID, err))
				continue
			}
			deleted++
		}
	}
	return deleted
}

// =========================================================================
// === Preserved info ===
// =========================================================================

type preservedInfo struct {
	decisions    []string
	files        []string
	topics       []string
	models       []string
	agentTypes   []string
	taskTypes    []string
	cost         float64
	inputTokens  int
	outputTokens int
}

// collect unions the fields that must survive compaction, preserving
// first-seen order.
func collect(group []ConversationMemory) preservedInfo {
	var info preservedInfo
	dedup := func(dst *[]string, seen map[string]bool, values ...string) {
		for _, v := range values {
			if v != "" && !seen[v] {
				seen[v] = true
				*dst = append(*dst, v)
			}
		}
	}
	decisionsSeen := make(map[string]bool)
	filesSeen := make(map[string]bool)
	topicsSeen := make(map[string]bool)
	modelsSeen := make(map[string]bool)
	agentsSeen := make(map[string]bool)
	tasksSeen := make(map[string]bool)

	for _, m := range group {
		dedup(&info.decisions, decisionsSeen, m.Decisions...)
		dedup(&info.files, filesSeen, m.FilesModified...)
		dedup(&info.topics, topicsSeen, m.Topics...)
		dedup(&info.models, modelsSeen, m.Model)
		dedup(&info.agentTypes, agentsSeen, m.AgentType)
		dedup(&info.taskTypes, tasksSeen, m.TaskType)
		info.cost += m.Cost
		info.inputTokens += m.InputTokens
		info.outputTokens += m.OutputTokens
	}
	return info
}

// =========================================================================
// === Summaries ===
// =========================================================================

// summarize asks the LLM for a thematic summary and falls back to the
// deterministic format on any failure.
func (c *Compactor) summarize(ctx context.Context, project string, group []ConversationMemory, info preservedInfo) string {
	if c.llm == nil {
		return fallbackSummary(project, group, info)
	}

	response, err := c.llm.Generate(ctx, llm.GenerateRequest{
		System:      summarySystemPrompt,
		Prompt:      summaryPrompt(group, info),
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil || strings.TrimSpace(response) == "" {
		slog.Warn("LLM summary failed, using fallback", "project", project, "error", err)
		return fallbackSummary(project, group, info)
	}
	return strings.TrimSpace(response)
}

// summaryPrompt lists each session followed by the preserved-info manifest.
func summaryPrompt(group []ConversationMemory, info preservedInfo) string {
	var b strings.Builder
	for i, m := range group {
		fmt.Fprintf(&b, "--- Session %d (%s) ---\n", i+1, m.Timestamp.Format("2006-01-02"))
		b.WriteString(m.Summary)
		b.WriteString("\n")
		if len(m.Decisions) > 0 {
			fmt.Fprintf(&b, "Decisions: %s\n", strings.Join(m.Decisions, "; "))
		}
		if len(m.FilesModified) > 0 {
			fmt.Fprintf(&b, "Files: %s\n", strings.Join(m.FilesModified, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("=== Must preserve ===\n")
	if len(info.decisions) > 0 {
		fmt.Fprintf(&b, "All decisions: %s\n", strings.Join(info.decisions, "; "))
	}
	if len(info.files) > 0 {
		fmt.Fprintf(&b, "All files: %s\n", strings.Join(info.files, ", "))
	}
	if len(info.topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(info.topics, ", "))
	}
	return b.String()
}

// fallbackSummary is the deterministic replacement when no LLM is
// available: header, up to ten per-session bullets, decisions, first
// thirty files.
func fallbackSummary(project string, group []ConversationMemory, info preservedInfo) string {
	start := group[0].Timestamp.Format("2006-01-02")
	end := group[len(group)-1].Timestamp.Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "Compacted %d sessions for %s (%s to %s).\n\n", len(group), project, start, end)

	bullets := group
	if len(bullets) > 10 {
		bullets = bullets[:10]
	}
	b.WriteString("Sessions:\n")
	for _, m := range bullets {
		line := m.Summary
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		fmt.Fprintf(&b, "- %s: %s\n", m.Timestamp.Format("2006-01-02"), line)
	}

	if len(info.decisions) > 0 {
		b.WriteString("\nDecisions:\n")
		for _, d := range info.decisions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}

	if len(info.files) > 0 {
		files := info.files
		if len(files) > 30 {
			files = files[:30]
		}
		b.WriteString("\nFiles touched:\n")
		fmt.Fprintf(&b, "%s\n", strings.Join(files, ", "))
	}
	return b.String()
}

func (c *Compactor) summarizerModel() string {
	if c.llm == nil {
		return "deterministic-fallback"
	}
	return c.llm.Model()
}
