package generator

import (
	"strings"

	"github.com/soyeahso/aiosforge/internal/domain"
)

func renderTypesTS(v *view) string {
	patterns := make([]string, 0, len(domain.Patterns()))
	for _, p := range domain.Patterns() {
		patterns = append(patterns, q(string(p)))
	}
	var d doc
	d.line("export type Pattern = " + strings.Join(patterns, " | ") + ";")
	d.blank()
	d.lines(`export interface AgentConfig {
  slug: string;
  name: string;
  role: string;
  description: string;
  model: string;
  visibility: "full" | "quick" | "key";
  system_prompt: string;
  commands: string[];
  tools: string[];
  skills: string[];
}

export interface StepConfig {
  id: string;
  name: string;
  agent: string;
  description: string;
  depends_on: string[];
  task: string;
}

export interface WorkflowConfig {
  id: string;
  slug: string;
  name: string;
  steps: StepConfig[];
}

export interface AgentResult {
  agent: string;
  output: string;
  ok: boolean;
}

export interface RunResult {
  pattern: Pattern;
  results: AgentResult[];
  summary: string;
}`)
	return d.String()
}

func renderEnvTS(v *view) string {
	var d doc
	d.lines(`import { config } from "dotenv";

config();

function read(name: string, fallback = ""): string {
  const value = process.env[name];
  return value === undefined || value === "" ? fallback : value;
}

export const env = {
  apiKey: read("LLM_API_KEY"),
  baseUrl: read("LLM_BASE_URL", "https://api.openai.com"),`)
	d.line("  defaultModel: read(\"DEFAULT_MODEL\", " + q(DefaultModel) + "),")
	d.lines(`  logLevel: read("LOG_LEVEL", "info"),
  memoryDir: read("AIOS_MEMORY_DIR", ".aios/memory"),
};

export function requireApiKey(): string {
  if (!env.apiKey) {
    throw new Error("LLM_API_KEY is not set; copy .env.example to .env and fill it in");
  }
  return env.apiKey;
}`)
	return d.String()
}

func renderLoggerTS(v *view) string {
	var d doc
	d.lines(`import { env } from "./env";

const levels = ["debug", "info", "warn", "error"] as const;
type Level = (typeof levels)[number];

function enabled(level: Level): boolean {
  const min = levels.indexOf(env.logLevel as Level);
  return levels.indexOf(level) >= (min < 0 ? 1 : min);
}

function write(level: Level, subsystem: string, msg: string, fields: Record<string, unknown> = {}): void {
  if (!enabled(level)) {
    return;
  }
  const entry = { level, time: new Date().toISOString(), subsystem, message: msg, ...fields };
  const out = level === "error" || level === "warn" ? process.stderr : process.stdout;
  out.write(JSON.stringify(entry) + "\n");
}

export interface Logger {
  debug(msg: string, fields?: Record<string, unknown>): void;
  info(msg: string, fields?: Record<string, unknown>): void;
  warn(msg: string, fields?: Record<string, unknown>): void;
  error(msg: string, fields?: Record<string, unknown>): void;
}

export function logger(subsystem: string): Logger {
  return {
    debug: (msg, fields) => write("debug", subsystem, msg, fields),
    info: (msg, fields) => write("info", subsystem, msg, fields),
    warn: (msg, fields) => write("warn", subsystem, msg, fields),
    error: (msg, fields) => write("error", subsystem, msg, fields),
  };
}`)
	return d.String()
}

func renderAgentRunnerTS(v *view) string {
	var d doc
	d.lines(`import { readFileSync } from "node:fs";
import { join } from "node:path";
import { parse } from "yaml";
import { env, requireApiKey } from "./env";
import { logger } from "./logger";
import type { AgentConfig, AgentResult } from "./types";

const log = logger("agent-runner");

export function loadAgent(slug: string): AgentConfig {
  const raw = readFileSync(join("agents", slug + ".yaml"), "utf8");
  return parse(raw) as AgentConfig;
}

interface ChatResponse {
  choices?: { message?: { content?: string } }[];
}

export async function runAgent(slug: string, input: string): Promise<AgentResult> {
  const agent = loadAgent(slug);
  log.info("running agent", { agent: slug, model: agent.model });

  const res = await fetch(env.baseUrl.replace(/\/$/, "") + "/v1/chat/completions", {
    method: "POST",
    headers: {
      "Content-Type": "application/json",
      Authorization: "Bearer " + requireApiKey(),
    },
    body: JSON.stringify({
      model: agent.model || env.defaultModel,
      messages: [
        { role: "system", content: agent.system_prompt },
        { role: "user", content: input },
      ],
    }),
  });

  if (!res.ok) {
    const text = await res.text();
    log.error("agent request failed", { agent: slug, status: res.status, body: text });
    return { agent: slug, output: text, ok: false };
  }

  const body = (await res.json()) as ChatResponse;
  const output = body.choices?.[0]?.message?.content ?? "";
  return { agent: slug, output, ok: true };
}`)
	return d.String()
}

func renderMainTS(v *view) string {
	var d doc
	d.lines(`import { run } from "./orchestrator";
import { logger } from "./logger";

const log = logger("main");

async function main(): Promise<void> {
  const input = process.argv.slice(2).join(" ").trim();
  if (!input) {
    process.stderr.write("usage: npm start -- \"<task description>\"\n");
    process.exit(2);
  }`)
	d.line("  log.info(\"starting\", { project: " + q(v.name) + " });")
	d.lines(`  const result = await run(input);
  process.stdout.write(result.summary + "\n");
  if (result.results.some((r) => !r.ok)) {
    process.exit(1);
  }
}

main().catch((err) => {
  log.error("run failed", { error: String(err) });
  process.exit(1);
});`)
	return d.String()
}

func renderOrchestratorTS(v *view) string {
	var d doc
	d.lines(`import { runAgent } from "./agent-runner";
import { logger } from "./logger";
import type { AgentResult, Pattern, RunResult } from "./types";

const log = logger("orchestrator");
`)
	d.line("export const PATTERN: Pattern = " + q(string(v.pattern)) + ";")
	d.line("export const AGENTS: string[] = " + qList(v.agentSlugs()) + ";")
	d.blank()
	d.lines(`function summarize(results: AgentResult[]): string {
  return results.map((r) => "## " + r.agent + (r.ok ? "" : " (failed)") + "\n\n" + r.output).join("\n\n");
}

function done(results: AgentResult[]): RunResult {
  return { pattern: PATTERN, results, summary: summarize(results) };
}
`)
	if len(v.agents) == 0 {
		d.lines(`export async function run(input: string): Promise<RunResult> {
  log.warn("no agents configured", { input });
  return done([]);
}`)
		return d.String()
	}
	d.lines(orchestrators[v.pattern])
	return d.String()
}

var orchestrators = map[domain.Pattern]string{
	domain.PatternSequentialPipeline: `// Each agent receives the previous agent's output.
export async function run(input: string): Promise<RunResult> {
  const results: AgentResult[] = [];
  let carry = input;
  for (const slug of AGENTS) {
    log.info("pipeline stage", { agent: slug });
    const result = await runAgent(slug, carry);
    results.push(result);
    if (!result.ok) {
      log.error("pipeline halted", { agent: slug });
      break;
    }
    carry = result.output;
  }
  return done(results);
}`,

	domain.PatternParallelSwarm: `// Every agent works on the same input concurrently.
export async function run(input: string): Promise<RunResult> {
  log.info("dispatching swarm", { agents: AGENTS.length });
  const results = await Promise.all(AGENTS.map((slug) => runAgent(slug, input)));
  return done(results);
}`,

	domain.PatternHierarchical: `// The first agent plans, the others execute its plan, and the lead
// reviews the combined work.
export async function run(input: string): Promise<RunResult> {
  const [lead, ...workers] = AGENTS;
  const plan = await runAgent(lead, "Break this task down for your team:\n" + input);
  const results: AgentResult[] = [plan];
  if (!plan.ok) {
    return done(results);
  }
  for (const slug of workers) {
    log.info("delegating", { from: lead, to: slug });
    results.push(await runAgent(slug, "Plan:\n" + plan.output + "\n\nTask:\n" + input));
  }
  if (workers.length > 0) {
    const work = results.slice(1).map((r) => r.agent + ":\n" + r.output).join("\n\n");
    results.push(await runAgent(lead, "Review your team's work:\n" + work));
  }
  return done(results);
}`,

	domain.PatternWatchdog: `const MAX_RETRIES = 2;

// The last agent supervises: every other agent's output is checked and
// retried with feedback until the watchdog approves it.
export async function run(input: string): Promise<RunResult> {
  const watchdog = AGENTS[AGENTS.length - 1];
  const workers = AGENTS.length > 1 ? AGENTS.slice(0, -1) : AGENTS;
  const results: AgentResult[] = [];
  for (const slug of workers) {
    let prompt = input;
    let result = await runAgent(slug, prompt);
    for (let attempt = 0; attempt < MAX_RETRIES && slug !== watchdog; attempt++) {
      const check = await runAgent(watchdog, "Reply APPROVED or list the problems:\n" + result.output);
      if (check.ok && check.output.trim().toUpperCase().startsWith("APPROVED")) {
        break;
      }
      log.warn("watchdog rejected output", { agent: slug, attempt: attempt + 1 });
      prompt = input + "\n\nFix these problems:\n" + check.output;
      result = await runAgent(slug, prompt);
    }
    results.push(result);
  }
  return done(results);
}`,

	domain.PatternCollaborative: `const MAX_ROUNDS = 3;

// Agents take turns refining a shared draft for a fixed number of rounds.
export async function run(input: string): Promise<RunResult> {
  let draft = "";
  const results: AgentResult[] = [];
  for (let round = 1; round <= MAX_ROUNDS; round++) {
    for (const slug of AGENTS) {
      log.debug("collaboration turn", { round, agent: slug });
      const result = await runAgent(slug, "Task:\n" + input + "\n\nCurrent draft:\n" + (draft || "(empty)"));
      if (result.ok) {
        draft = result.output;
      }
      if (round === MAX_ROUNDS) {
        results.push(result);
      }
    }
  }
  return done(results);
}`,

	domain.PatternTaskFirst: `// The first agent splits the input into tasks, which are then assigned to
// agents round robin.
export async function run(input: string): Promise<RunResult> {
  const [planner] = AGENTS;
  const plan = await runAgent(planner, "List the tasks needed, one per line:\n" + input);
  const results: AgentResult[] = [plan];
  if (!plan.ok) {
    return done(results);
  }
  const tasks = plan.output.split("\n").map((t) => t.replace(/^[-*\d.\s]+/, "").trim()).filter(Boolean);
  for (const [i, task] of tasks.entries()) {
    const slug = AGENTS[i % AGENTS.length];
    log.info("assigning task", { task, agent: slug });
    results.push(await runAgent(slug, task));
  }
  return done(results);
}`,
}
