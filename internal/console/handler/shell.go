package handler

const shellTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0"/>
  <title>SAUDE Dashboard</title>
  <script src="https://cdn.tailwindcss.com"></script>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <style>
    @import url('https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap');
    body { font-family: 'Inter', sans-serif; }
    .tab-pane { display: none; }
    .tab-pane.active { display: block; }
    .chat-container { height: 500px; overflow-y: auto; }
    .user-message { background:#2563eb;color:#fff;align-self:flex-end;border-radius:1.5rem 1.5rem .5rem 1.5rem;padding:.75rem 1.25rem;max-width:70%;}
    .agent-message { background:#e5e7eb;color:#1f2937;border-radius:1.5rem 1.5rem 1.5rem .5rem;padding:.75rem 1.25rem;max-width:70%;}
  </style>
</head>
<body class="bg-gray-100 text-gray-800">
  <div class="max-w-7xl mx-auto p-4 md:p-8">
    <div class="flex items-center justify-between mb-8">
      <h1 class="text-3xl font-bold text-gray-800">SAUDE MVP</h1>
      <nav class="flex space-x-6">
        {{- range .Nav}}
        <a href="#{{.Key}}" id="nav-{{.Key}}" data-tab="{{.Key}}" class="{{.Class}}">{{.Label}}</a>
        {{- end}}
      </nav>
    </div>

    <div id="content-container">
      <div id="tab-dashboard" class="{{pane .Active "dashboard"}}">
        <div class="grid grid-cols-2 sm:grid-cols-4 gap-6 mb-8">
          <div class="bg-white rounded-lg shadow-sm p-6 text-center">
            <div class="text-sm text-gray-500">SUCCESS</div>
            <div id="kpi-success" class="text-3xl font-bold mt-2 text-green-600">{{.Placeholder}}</div>
          </div>
          <div class="bg-white rounded-lg shadow-sm p-6 text-center">
            <div class="text-sm text-gray-500">MTTR</div>
            <div id="kpi-mttr" class="text-3xl font-bold mt-2">{{.Placeholder}}</div>
          </div>
          <div class="bg-white rounded-lg shadow-sm p-6 text-center">
            <div class="text-sm text-gray-500">OPEN ALERTS</div>
            <div id="kpi-open" class="text-3xl font-bold mt-2 text-yellow-500">{{.Placeholder}}</div>
          </div>
          <div class="bg-white rounded-lg shadow-sm p-6 text-center">
            <div class="text-sm text-gray-500">FAILED RUNS</div>
            <div id="kpi-failed" class="text-3xl font-bold mt-2 text-red-600">{{.Placeholder}}</div>
          </div>
        </div>

        <div class="grid grid-cols-1 md:grid-cols-2 gap-8">
          <div class="bg-white rounded-lg shadow-sm p-6">
            <h2 class="text-xl font-semibold mb-4">Products by Number of Resources</h2>
            <div class="relative w-full h-96"><canvas id="resourcesChart"></canvas></div>
            <div id="chartError" class="text-sm text-red-600 mt-3 hidden">Could not load resource summary.</div>
          </div>

          <div class="bg-white rounded-lg shadow-sm p-6">
            <h2 class="text-xl font-semibold mb-4">Last SRE Decisions</h2>
            <div class="overflow-x-auto">
              <table class="min-w-full divide-y divide-gray-200">
                <thead class="bg-gray-50">
                  <tr>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Time</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Pipeline</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Category</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Action</th>
                  </tr>
                </thead>
                <tbody id="decisions-table-body" class="bg-white divide-y divide-gray-200"></tbody>
              </table>
              <div id="decisions-empty" class="text-sm text-gray-500 mt-3 hidden">No recent decisions.</div>
            </div>
          </div>
        </div>
      </div>

      <div id="tab-pipelines" class="{{pane .Active "pipelines"}}">
        <div class="bg-white rounded-lg shadow-sm">
          <div class="p-6 flex flex-col sm:flex-row justify-between items-center gap-4">
            <h3 class="text-xl font-semibold">Pipeline Events</h3>
            <div class="flex gap-2 sm:gap-3 items-center w-full sm:w-auto">
              <input id="pipelineFilter" placeholder="Filter by pipeline name" class="px-4 py-2 border rounded-lg w-full sm:w-64" />
              <button id="feed-refresh" class="px-4 py-2 bg-blue-600 text-white rounded-lg hover:bg-blue-700">Refresh</button>
            </div>
          </div>
          <div class="p-6">
            <div class="overflow-x-auto">
              <table id="pipelineFeed" class="min-w-full divide-y divide-gray-200">
                <thead>
                  <tr>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Time (UTC)</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Pipeline</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Category</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Action</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Status</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Why</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Run Id</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Durable</th>
                  </tr>
                </thead>
                <tbody id="pipelineFeed-body"></tbody>
              </table>
              <div id="emptyState" class="mt-4 text-center text-gray-500 hidden">No events yet.</div>
              <div id="feedError" class="mt-4 text-center text-red-600 hidden">Could not load pipeline feed.</div>
            </div>
          </div>
        </div>
      </div>

      <div id="tab-chat" class="{{pane .Active "chat"}}">
        <div class="bg-white rounded-lg shadow-sm p-6">
          <h2 class="text-xl font-semibold mb-4">Chat with Agent-Info</h2>
          <div id="chat-window" class="chat-container flex flex-col space-y-4 p-4 bg-gray-50 rounded-lg mb-4">
            <div class="flex"><div class="agent-message">{{.Greeting}}</div></div>
          </div>
          <form id="chat-form" class="flex items-center gap-4">
            <input type="text" id="chat-input" placeholder="Ask a question about your infra..." class="flex-grow px-4 py-2 border rounded-lg focus:outline-none focus:ring-2 focus:ring-blue-500" />
            <button type="submit" class="px-4 py-2 bg-blue-600 text-white rounded-lg hover:bg-blue-700">Send</button>
          </form>
        </div>
      </div>

      <div id="tab-architecture" class="{{pane .Active "architecture"}}">
        <h2 class="text-3xl font-bold text-center mb-6 text-gray-800">SAUDE Architecture &amp; Documentation</h2>
        <div class="bg-white rounded-lg shadow-sm p-6 md:p-10">
          <p>The SAUDE console is a thin operator view over the SAUDE backend and its serverless agents for triage and infra insights.</p>
          <div class="mt-8">
            <h3 class="text-2xl font-bold">Key Components</h3>
            <ul class="list-disc list-inside space-y-2">
              <li><strong class="text-blue-600">SAUDE Console</strong>: this page, rendered on the server and pushed over a websocket.</li>
              <li><strong class="text-blue-600">SAUDE Backend</strong>: resource summary, SRE decisions, API logs and the chat endpoint.</li>
              <li><strong class="text-blue-600">Agent-SRE-Func</strong>: Durable Functions triage flows.</li>
              <li><strong class="text-blue-600">Agent-Info-Func</strong>: inventory and info via Resource Graph.</li>
              <li><strong class="text-blue-600">Azure Monitor</strong>: pipeline failure alerts to the backend webhook.</li>
            </ul>
          </div>
          <div class="mt-8">
            <h3 class="text-2xl font-bold">Workflow</h3>
            <ol class="list-decimal list-inside space-y-2">
              <li>A pipeline fails and Azure Monitor raises an alert.</li>
              <li>The backend classifies the failure and starts an Agent-SRE triage when it is retryable.</li>
              <li>Decisions and call logs are stored by the backend.</li>
              <li>The console polls them and links every run to its durable status.</li>
            </ol>
          </div>
        </div>
      </div>

      <div id="tab-logs" class="{{pane .Active "logs"}}">
        <div class="bg-white rounded-lg shadow-sm">
          <div class="p-6 flex justify-between items-center">
            <h3 class="text-xl font-semibold">API Logs</h3>
            <button id="logs-refresh" class="px-4 py-2 bg-blue-600 text-white rounded-lg hover:bg-blue-700">Refresh</button>
          </div>
          <div class="p-6">
            <div class="overflow-x-auto">
              <table id="api-logs-table" class="min-w-full divide-y divide-gray-200">
                <thead>
                  <tr>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Time</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Endpoint</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Method</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Status Code</th>
                    <th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">Duration (ms)</th>
                  </tr>
                </thead>
                <tbody id="api-logs-body"></tbody>
              </table>
              <div id="emptyLogsState" class="mt-4 text-center text-gray-500 hidden">No API logs yet.</div>
              <div id="logsError" class="mt-4 text-center text-red-600 hidden">Could not load logs.</div>
            </div>
          </div>
        </div>
      </div>
    </div>
  </div>

  <script>
    (function () {
      const NAV_BASE = "text-gray-700 hover:text-blue-600 border-b-2 ";
      const charts = {};
      let ws = null;

      function el(id) { return id ? document.getElementById(id) : null; }
      function toggle(id, visible) { const e = el(id); if (e) e.classList.toggle("hidden", !visible); }

      const apply = {
        region(u) {
          const r = u.region;
          const body = el(r.body_id);
          if (body) body.innerHTML = r.body;
          toggle(r.empty_id, r.empty_visible);
          toggle(r.error_id, r.error_visible);
        },
        kpi(u) {
          for (const [id, v] of Object.entries(u.kpis || {})) { const e = el(id); if (e) e.textContent = v; }
        },
        chart_destroy(u) {
          if (charts[u.canvas]) { charts[u.canvas].destroy(); delete charts[u.canvas]; }
        },
        chart(u) {
          const cv = el(u.canvas);
          if (cv) charts[u.canvas] = new Chart(cv.getContext("2d"), u.chart);
        },
        tabs(u) {
          for (const p of u.tabs.panes) {
            const pane = el("tab-" + p.key);
            if (pane) pane.classList.toggle("active", p.visible);
            const nav = el("nav-" + p.key);
            if (nav) nav.className = NAV_BASE + p.nav_class;
          }
          if (location.hash !== "#" + u.tabs.fragment) history.replaceState(null, "", "#" + u.tabs.fragment);
        },
        chat(u) {
          const win = el("chat-window");
          win.insertAdjacentHTML("beforeend", u.chat.html);
          win.scrollTop = win.scrollHeight;
        },
        chat_input_clear() { el("chat-input").value = ""; },
      };

      function send(cmd) {
        if (ws && ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(cmd));
      }

      let reconnectDelay = 1000;
      let connectedOnce = false;

      function tokenParam() {
        const token = localStorage.getItem("saude_token");
        return token ? "access_token=" + encodeURIComponent(token) : "";
      }

      // новая страница на сервере: старые графики и транскрипт сбрасываем
      function resetView() {
        for (const id of Object.keys(charts)) { charts[id].destroy(); delete charts[id]; }
        el("chat-window").innerHTML = "";
      }

      function connect() {
        const proto = location.protocol === "https:" ? "wss:" : "ws:";
        const params = new URLSearchParams({
          tab: location.hash.replace(/^#/, ""),
          filter: el("pipelineFilter").value,
        });
        const token = localStorage.getItem("saude_token");
        if (token) params.set("access_token", token);
        const sock = new WebSocket(proto + "//" + location.host + "/ws?" + params.toString());
        ws = sock;
        sock.onopen = () => {
          reconnectDelay = 1000;
          if (connectedOnce) resetView();
          connectedOnce = true;
        };
        sock.onmessage = (ev) => {
          const u = JSON.parse(ev.data);
          const fn = apply[u.type];
          if (fn) fn(u);
        };
        sock.onclose = () => {
          if (ws !== sock) return;
          ws = null;
          reconnectDelay = Math.min(reconnectDelay * 1.5, 10000);
          setTimeout(connect, reconnectDelay);
        };
      }

      // ссылки статуса открываются в новой вкладке без заголовков: токен едет в query
      function authorizeStatusLink(e) {
        const a = e.target.closest("a[href^='/status/']");
        const tp = tokenParam();
        if (!a || !tp) return;
        const base = a.getAttribute("href").split("?")[0];
        a.setAttribute("href", base + "?" + tp);
      }
      document.addEventListener("click", authorizeStatusLink, true);
      document.addEventListener("auxclick", authorizeStatusLink, true);

      document.querySelectorAll("nav a[data-tab]").forEach((a) => {
        a.addEventListener("click", (e) => { e.preventDefault(); send({ type: "tab", key: a.dataset.tab }); });
      });
      window.addEventListener("hashchange", () => send({ type: "tab", key: location.hash.replace(/^#/, "") }));
      el("pipelineFilter").addEventListener("input", () => send({ type: "feed_filter", filter: el("pipelineFilter").value }));
      el("feed-refresh").addEventListener("click", () => send({ type: "feed_refresh", filter: el("pipelineFilter").value }));
      el("logs-refresh").addEventListener("click", () => send({ type: "logs_refresh" }));
      el("chat-form").addEventListener("submit", (e) => {
        e.preventDefault();
        send({ type: "chat", text: el("chat-input").value });
      });

      connect();
    })();
  </script>
</body>
</html>
`
