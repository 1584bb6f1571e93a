package server

// DashboardHTML is the embedded single-page dashboard of the target server.
// It seeds its counters from GET /stats, then follows /ws.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>rewind target</title>
<style>
  :root {
    --bg: #10141a; --panel: #171c24; --line: #2a313c; --text: #d7dde5; --dim: #7d8794;
    --ok: #4cc38a; --bad: #e5534b; --warn: #d9a53f; --info: #5aa9e6;
  }
  * { box-sizing: border-box; }
  body { margin: 0; padding: 24px; background: var(--bg); color: var(--text); font: 14px/1.4 ui-monospace, Menlo, Consolas, monospace; }
  header { display: flex; align-items: baseline; gap: 16px; margin-bottom: 20px; }
  header h1 { margin: 0; font-size: 20px; color: var(--info); }
  #link { font-size: 12px; padding: 2px 10px; border-radius: 10px; background: #3a1d1d; color: var(--bad); }
  #link.up { background: #173226; color: var(--ok); }
  #rate { margin-left: auto; color: var(--dim); }
  table.counts { width: 100%; border-collapse: collapse; margin-bottom: 20px; background: var(--panel); border: 1px solid var(--line); }
  table.counts th, table.counts td { padding: 8px 12px; text-align: right; border-bottom: 1px solid var(--line); }
  table.counts th:first-child, table.counts td:first-child { text-align: left; }
  table.counts th { color: var(--dim); font-weight: normal; text-transform: uppercase; font-size: 11px; }
  table.counts tr.sum td { font-weight: bold; border-bottom: none; }
  .n-accepted { color: var(--ok); }
  .n-rate_limited { color: var(--bad); }
  .n-invalid { color: var(--warn); }
  nav { display: flex; gap: 8px; margin-bottom: 8px; }
  nav button { background: var(--panel); color: var(--dim); border: 1px solid var(--line); padding: 4px 10px; cursor: pointer; font: inherit; }
  nav button.on { color: var(--text); border-color: var(--info); }
  nav .spacer { flex: 1; }
  #feed { background: var(--panel); border: 1px solid var(--line); height: 480px; overflow-y: auto; }
  #feed .line { display: grid; grid-template-columns: 110px 140px 110px 1fr 60px 70px; gap: 8px; padding: 5px 12px; border-bottom: 1px solid #1f252e; }
  #feed .line.hide { display: none; }
  #feed .idle { padding: 48px; text-align: center; color: var(--dim); }
  .t-view { color: var(--info); }
  .t-cart { color: var(--warn); }
  .t-remove_from_cart { color: var(--dim); }
  .t-purchase { color: var(--ok); }
  .code-ok { color: var(--ok); }
  .code-bad { color: var(--bad); }
  .muted { color: var(--dim); }
</style>
</head>
<body>
<header>
  <h1>rewind target</h1>
  <span id="link">offline</span>
  <span id="rate">0 events/s</span>
</header>

<table class="counts">
  <thead><tr><th>Event type</th><th>Accepted</th><th>Rate limited</th><th>Invalid</th></tr></thead>
  <tbody id="counts"></tbody>
</table>

<nav id="filters">
  <button data-type="" class="on">all</button>
  <button data-type="view">view</button>
  <button data-type="cart">cart</button>
  <button data-type="remove_from_cart">remove_from_cart</button>
  <button data-type="purchase">purchase</button>
  <span class="spacer"></span>
  <button id="wipe">clear feed</button>
</nav>
<div id="feed"><div class="idle">No events yet. Point rewind replay or rewind bulk at this server.</div></div>

<script>
const TYPES = ['view', 'cart', 'remove_from_cart', 'purchase'];
const STATUSES = ['accepted', 'rate_limited', 'invalid'];
const FEED_CAP = 250;
const counts = {};
let shown = '';
let stamps = [];

TYPES.forEach(t => { counts[t] = {accepted: 0, rate_limited: 0, invalid: 0}; });

function esc(s) {
  return String(s == null ? '' : s).replace(/[&<>"']/g, c => '&#' + c.charCodeAt(0) + ';');
}

function renderCounts() {
  const sum = {accepted: 0, rate_limited: 0, invalid: 0};
  let html = '';
  TYPES.forEach(t => {
    html += '<tr><td class="t-' + t + '">' + t + '</td>';
    STATUSES.forEach(s => {
      sum[s] += counts[t][s];
      html += '<td class="n-' + s + '">' + counts[t][s] + '</td>';
    });
    html += '</tr>';
  });
  html += '<tr class="sum"><td>total</td>' + STATUSES.map(s => '<td class="n-' + s + '">' + sum[s] + '</td>').join('') + '</tr>';
  document.getElementById('counts').innerHTML = html;
}

function seed() {
  fetch('/stats').then(r => r.json()).then(st => {
    TYPES.forEach(t => {
      const got = (st.events && st.events[t]) || {};
      STATUSES.forEach(s => { counts[t][s] = got[s] || 0; });
    });
    renderCounts();
  }).catch(() => renderCounts());
}

function push(msg) {
  const rec = msg.record || {};
  const type = rec.event_type;
  if (counts[type]) {
    counts[type][msg.status === 200 ? 'accepted' : 'rate_limited']++;
    renderCounts();
  }

  const now = Date.now();
  stamps.push(now);
  stamps = stamps.filter(t => now - t < 1000);
  document.getElementById('rate').textContent = stamps.length + ' events/s';

  const feed = document.getElementById('feed');
  const idle = feed.querySelector('.idle');
  if (idle) idle.remove();

  const line = document.createElement('div');
  line.className = 'line';
  line.dataset.type = type;
  if (shown && shown !== type) line.classList.add('hide');
  const at = new Date(msg.time).toISOString().substring(11, 23);
  const budget = msg.decision ? msg.decision.remaining + ' left' : '';
  line.innerHTML =
    '<span class="muted">' + at + '</span>' +
    '<span class="t-' + esc(type) + '">' + esc(type) + '</span>' +
    '<span>' + esc(rec.user_id) + '</span>' +
    '<span>' + esc(rec.product_id) + ' <span class="muted">' + esc(rec.brand) + ' ' + esc(rec.price) + '</span></span>' +
    '<span class="' + (msg.status === 200 ? 'code-ok' : 'code-bad') + '">' + msg.status + '</span>' +
    '<span class="muted">' + budget + '</span>';
  feed.insertBefore(line, feed.firstChild);
  while (feed.children.length > FEED_CAP) feed.removeChild(feed.lastChild);
}

function follow() {
  const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
  const ws = new WebSocket(scheme + location.host + '/ws');
  const link = document.getElementById('link');
  ws.onopen = () => { link.textContent = 'live'; link.className = 'up'; seed(); };
  ws.onclose = () => { link.textContent = 'offline'; link.className = ''; setTimeout(follow, 2000); };
  ws.onmessage = e => push(JSON.parse(e.data));
}

document.getElementById('filters').addEventListener('click', e => {
  const b = e.target.closest('button');
  if (!b) return;
  if (b.id === 'wipe') {
    document.getElementById('feed').innerHTML = '';
    return;
  }
  shown = b.dataset.type;
  document.querySelectorAll('#filters button[data-type]').forEach(x => x.classList.toggle('on', x === b));
  document.querySelectorAll('#feed .line').forEach(l => l.classList.toggle('hide', !!shown && l.dataset.type !== shown));
});

renderCounts();
follow();
</script>
</body>
</html>`
