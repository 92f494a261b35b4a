// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

// Expansion is one abbreviation entry: the primary long form that replaces
// the token, plus alternates that become search synonyms.
type Expansion struct {
	Primary    string
	Alternates []string
}

// Abbreviations maps common code shorthands to their long forms. Primary
// expansions are never themselves keys, which keeps the lexicon pass
// idempotent: expanding an already-expanded query is a no-op.
var Abbreviations = map[string]Expansion{
	// Identity and access
	"auth":  {Primary: "authentication", Alternates: []string{"authorization", "login"}},
	"authz": {Primary: "authorization", Alternates: []string{"permissions"}},
	"perm":  {Primary: "permission", Alternates: []string{"access"}},
	"creds": {Primary: "credentials", Alternates: []string{"secrets"}},
	"pwd":   {Primary: "password", Alternates: []string{"credentials"}},
	"usr":   {Primary: "user", Alternates: []string{"account"}},
	"acct":  {Primary: "account", Alternates: []string{"user"}},
	"sess":  {Primary: "session", Alternates: []string{"token"}},

	// UI
	"btn":   {Primary: "button", Alternates: []string{"click"}},
	"img":   {Primary: "image", Alternates: []string{"picture", "icon"}},
	"nav":   {Primary: "navigation", Alternates: []string{"menu", "navbar"}},
	"bg":    {Primary: "background", Alternates: []string{"style"}},
	"hdr":   {Primary: "header", Alternates: []string{"heading"}},
	"ftr":   {Primary: "footer", Alternates: nil},
	"tbl":   {Primary: "table", Alternates: []string{"grid"}},
	"chk":   {Primary: "checkbox", Alternates: []string{"toggle"}},
	"dd":    {Primary: "dropdown", Alternates: []string{"select"}},
	"lbl":   {Primary: "label", Alternates: nil},
	"txt":   {Primary: "text", Alternates: []string{"string"}},
	"ui":    {Primary: "interface", Alternates: []string{"view", "frontend"}},
	"pg":    {Primary: "page", Alternates: []string{"screen", "view"}},
	"comp":  {Primary: "component", Alternates: []string{"widget"}},
	"props": {Primary: "properties", Alternates: []string{"attributes"}},

	// Data and storage
	"db":    {Primary: "database", Alternates: []string{"storage", "store"}},
	"repo":  {Primary: "repository", Alternates: []string{"store"}},
	"tx":    {Primary: "transaction", Alternates: nil},
	"txn":   {Primary: "transaction", Alternates: nil},
	"qry":   {Primary: "query", Alternates: []string{"search"}},
	"col":   {Primary: "column", Alternates: []string{"field"}},
	"idx":   {Primary: "index", Alternates: []string{"key"}},
	"rec":   {Primary: "record", Alternates: []string{"row", "entry"}},
	"doc":   {Primary: "document", Alternates: []string{"record"}},
	"mig":   {Primary: "migration", Alternates: []string{"schema"}},
	"cache": {Primary: "cache", Alternates: []string{"memoize", "store"}},

	// Networking and APIs
	"req":  {Primary: "request", Alternates: []string{"call"}},
	"res":  {Primary: "response", Alternates: []string{"result"}},
	"resp": {Primary: "response", Alternates: []string{"result"}},
	"conn": {Primary: "connection", Alternates: []string{"client"}},
	"srv":  {Primary: "server", Alternates: []string{"service"}},
	"svc":  {Primary: "service", Alternates: []string{"handler"}},
	"ep":   {Primary: "endpoint", Alternates: []string{"route"}},
	"ws":   {Primary: "websocket", Alternates: []string{"socket"}},
	"url":  {Primary: "url", Alternates: []string{"link", "address"}},
	"http": {Primary: "http", Alternates: []string{"request", "api"}},

	// Language constructs
	"fn":    {Primary: "function", Alternates: []string{"method", "handler"}},
	"func":  {Primary: "function", Alternates: []string{"method"}},
	"impl":  {Primary: "implementation", Alternates: []string{"implements"}},
	"init":  {Primary: "initialize", Alternates: []string{"setup", "bootstrap"}},
	"param": {Primary: "parameter", Alternates: []string{"argument"}},
	"arg":   {Primary: "argument", Alternates: []string{"parameter"}},
	"attr":  {Primary: "attribute", Alternates: []string{"property"}},
	"var":   {Primary: "variable", Alternates: []string{"value"}},
	"const": {Primary: "constant", Alternates: []string{"value"}},
	"obj":   {Primary: "object", Alternates: []string{"instance"}},
	"arr":   {Primary: "array", Alternates: []string{"list"}},
	"str":   {Primary: "string", Alternates: []string{"text"}},
	"num":   {Primary: "number", Alternates: []string{"integer"}},
	"bool":  {Primary: "boolean", Alternates: []string{"flag"}},
	"el":    {Primary: "element", Alternates: []string{"node"}},
	"elem":  {Primary: "element", Alternates: []string{"node"}},
	"iface": {Primary: "interface", Alternates: []string{"contract"}},
	"enum":  {Primary: "enumeration", Alternates: []string{"constants"}},
	"ptr":   {Primary: "pointer", Alternates: []string{"reference"}},
	"ref":   {Primary: "reference", Alternates: []string{"pointer"}},

	// Operations
	"calc": {Primary: "calculate", Alternates: []string{"compute"}},
	"gen":  {Primary: "generate", Alternates: []string{"create", "build"}},
	"del":  {Primary: "delete", Alternates: []string{"remove"}},
	"rm":   {Primary: "remove", Alternates: []string{"delete"}},
	"upd":  {Primary: "update", Alternates: []string{"modify"}},
	"ins":  {Primary: "insert", Alternates: []string{"add", "create"}},
	"exec": {Primary: "execute", Alternates: []string{"run"}},
	"proc": {Primary: "process", Alternates: []string{"handle"}},
	"val":  {Primary: "validate", Alternates: []string{"check", "verify"}},
	"conv": {Primary: "convert", Alternates: []string{"transform", "parse"}},
	"cmp":  {Primary: "compare", Alternates: []string{"equality"}},
	"agg":  {Primary: "aggregate", Alternates: []string{"group", "sum"}},

	// Infrastructure and tooling
	"cfg":   {Primary: "configuration", Alternates: []string{"settings", "options"}},
	"config": {Primary: "configuration", Alternates: []string{"settings"}},
	"env":   {Primary: "environment", Alternates: []string{"configuration"}},
	"ctx":   {Primary: "context", Alternates: nil},
	"err":   {Primary: "error", Alternates: []string{"exception", "failure"}},
	"msg":   {Primary: "message", Alternates: []string{"event"}},
	"pkg":   {Primary: "package", Alternates: []string{"module"}},
	"lib":   {Primary: "library", Alternates: []string{"package"}},
	"dep":   {Primary: "dependency", Alternates: []string{"import"}},
	"dir":   {Primary: "directory", Alternates: []string{"folder"}},
	"src":   {Primary: "source", Alternates: nil},
	"dest":  {Primary: "destination", Alternates: []string{"target"}},
	"tmp":   {Primary: "temporary", Alternates: nil},
	"cmd":   {Primary: "command", Alternates: []string{"cli"}},
	"mgr":   {Primary: "manager", Alternates: []string{"controller"}},
	"util":  {Primary: "utility", Alternates: []string{"helper"}},
	"mw":    {Primary: "middleware", Alternates: []string{"interceptor"}},
	"sched": {Primary: "scheduler", Alternates: []string{"cron", "job"}},
	"async": {Primary: "asynchronous", Alternates: []string{"concurrent", "promise"}},
	"mem":   {Primary: "memory", Alternates: nil},
	"perf":  {Primary: "performance", Alternates: []string{"optimization"}},
	"stats": {Primary: "statistics", Alternates: []string{"metrics"}},
	"info":  {Primary: "information", Alternates: []string{"details"}},
	"spec":  {Primary: "specification", Alternates: []string{"test"}},
	"admin": {Primary: "administrator", Alternates: []string{"management"}},
	"i18n":  {Primary: "internationalization", Alternates: []string{"localization", "translation"}},
	"a11y":  {Primary: "accessibility", Alternates: []string{"aria"}},
}

// DomainSynonyms adds search synonyms for verbs and UI nouns that appear in
// queries verbatim. Unlike Abbreviations these never replace the token, they
// only widen the synonym set.
var DomainSynonyms = map[string][]string{
	"login":    {"signin", "authenticate", "logon"},
	"logout":   {"signout", "deauthenticate"},
	"signup":   {"register", "onboarding", "create account"},
	"fetch":    {"load", "retrieve", "get"},
	"load":     {"fetch", "read", "hydrate"},
	"save":     {"persist", "store", "write"},
	"delete":   {"remove", "destroy", "drop"},
	"update":   {"modify", "edit", "patch"},
	"create":   {"add", "new", "insert"},
	"search":   {"find", "query", "lookup", "filter"},
	"filter":   {"search", "narrow", "where"},
	"sort":     {"order", "rank", "arrange"},
	"validate": {"verify", "check", "sanitize"},
	"render":   {"display", "show", "draw"},
	"submit":   {"send", "post", "save"},
	"upload":   {"attach", "import", "file"},
	"download": {"export", "file", "save"},
	"toggle":   {"switch", "enable", "disable"},
	"notify":   {"alert", "toast", "notification"},
	"redirect": {"navigate", "route", "forward"},
	"parse":    {"decode", "deserialize", "read"},
	"format":   {"serialize", "encode", "stringify"},
	"modal":    {"dialog", "popup", "overlay"},
	"button":   {"click", "submit", "action"},
	"form":     {"input", "field", "submission"},
	"hook":     {"effect", "state", "custom"},
	"route":    {"path", "endpoint", "navigation"},
	"router":   {"navigation", "routing", "history"},
	"state":    {"store", "reducer", "data"},
	"store":    {"state", "repository", "storage"},
	"list":     {"table", "collection", "items"},
	"table":    {"grid", "list", "rows"},
	"dropdown": {"select", "picker", "menu"},
	"menu":     {"navigation", "dropdown", "sidebar"},
	"card":     {"tile", "panel", "item"},
	"sidebar":  {"drawer", "panel", "navigation"},
	"tooltip":  {"hint", "popover", "hover"},
	"spinner":  {"loader", "loading", "progress"},
	"avatar":   {"profile", "image", "icon"},
	"badge":    {"tag", "chip", "label"},
	"tab":      {"panel", "section", "view"},
	"wizard":   {"stepper", "flow", "onboarding"},
	"theme":    {"style", "dark mode", "appearance"},
	"layout":   {"grid", "container", "structure"},
	"event":    {"handler", "listener", "callback"},
	"timer":    {"interval", "timeout", "debounce"},
	"queue":    {"worker", "job", "task"},
	"token":    {"jwt", "session", "credential"},
	"payment":  {"checkout", "billing", "stripe"},
	"email":    {"mail", "notification", "smtp"},
	"websocket": {"socket", "realtime", "subscription"},
	"pagination": {"paging", "cursor", "offset"},
}
