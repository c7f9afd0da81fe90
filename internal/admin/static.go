// internal/admin/static.go
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Page serves the bundled management console. The page is a thin client
// over the /admin API: it keeps the bearer token in localStorage and does
// everything else through fetch calls, so it needs no server-side state.
func Page(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(adminHTML))
}

const adminHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>License Admin</title>
<style>
  body { margin: 0; background: #f5f7fa; font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; }
  .wrap { max-width: 1100px; margin: 0 auto; padding: 20px; }
  .card { background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.1); padding: 16px 20px; margin-bottom: 16px; }
  table { width: 100%; border-collapse: collapse; font-size: 14px; }
  th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #eee; }
  .hash { font-family: monospace; font-size: 12px; color: #666; }
  .bad { color: #c00; }
  button { cursor: pointer; }
  input, select { padding: 6px 8px; margin: 4px 0; }
  #login { max-width: 360px; margin: 120px auto; }
</style>
</head>
<body>
<div id="login" class="card" hidden>
  <h3>License Admin</h3>
  <input id="token" type="password" placeholder="Admin token" style="width:100%">
  <button onclick="login()">Sign in</button>
</div>
<div id="main" class="wrap" hidden>
  <div class="card">
    <h2 style="display:inline">Licenses</h2>
    <button style="float:right" onclick="logout()">Sign out</button>
    <button style="float:right" onclick="refresh()">Refresh</button>
    <form onsubmit="return addLicense(event)">
      <input id="f_device" placeholder="Device ID" required>
      <input id="f_customer" placeholder="Customer" required>
      <input id="f_expires" type="date" required>
      <input id="f_hash" placeholder="Expected hash (optional)">
      <select id="f_status"><option>active</option><option>disabled</option></select>
      <button type="submit">Save</button>
    </form>
    <table id="licenses"><thead><tr>
      <th>Customer</th><th>Device</th><th>Expires</th><th>Status</th><th>Hash</th><th></th>
    </tr></thead><tbody></tbody></table>
  </div>
  <div class="card">
    <h2>Tamper logs</h2>
    <table id="logs"><thead><tr>
      <th>Time</th><th>Device</th><th>Customer</th><th>Expected / actual</th><th></th>
    </tr></thead><tbody></tbody></table>
  </div>
</div>
<script>
let token = localStorage.getItem('admin_token') || '';

function hdrs() { return {'Content-Type': 'application/json', 'Authorization': 'Bearer ' + token}; }

function show() {
  document.getElementById('login').hidden = !!token;
  document.getElementById('main').hidden = !token;
  if (token) refresh();
}

function login() {
  token = document.getElementById('token').value;
  localStorage.setItem('admin_token', token);
  show();
}

function logout() {
  token = '';
  localStorage.removeItem('admin_token');
  show();
}

async function api(path, opts) {
  const res = await fetch(path, Object.assign({headers: hdrs()}, opts || {}));
  if (res.status === 401) { logout(); throw new Error('unauthorized'); }
  return res.json();
}

async function refresh() {
  const lic = await api('/admin/list');
  document.querySelector('#licenses tbody').innerHTML = (lic.licenses || []).map(l =>
    '<tr><td>' + esc(l.customer) + '</td><td>' + esc(l.device_id) + '</td><td>' + esc(l.expires_at) +
    '</td><td>' + esc(l.status) + '</td><td class="hash">' + esc(l.expected_hash || '-') +
    '</td><td><button onclick="del(\'license\',\'' + esc(l.device_id) + '\')">Delete</button></td></tr>').join('');
  const tl = await api('/admin/tamper-logs');
  document.querySelector('#logs tbody').innerHTML = (tl.tamper_logs || []).map(t =>
    '<tr><td>' + esc(t.timestamp) + '</td><td class="bad">' + esc(t.device_id) + '</td><td>' + esc(t.customer) +
    '</td><td class="hash">' + esc(t.expected_hash) + '<br>' + esc(t.actual_hash) +
    '</td><td><button onclick="del(\'log\',\'' + esc(t.key) + '\')">Delete</button></td></tr>').join('');
}

async function addLicense(e) {
  e.preventDefault();
  await api('/admin/add', {method: 'POST', body: JSON.stringify({
    device_id: document.getElementById('f_device').value,
    customer: document.getElementById('f_customer').value,
    expires_at: document.getElementById('f_expires').value,
    expected_hash: document.getElementById('f_hash').value,
    status: document.getElementById('f_status').value
  })});
  refresh();
  return false;
}

async function del(type, id) {
  if (!confirm('Delete ' + type + ' ' + id + '?')) return;
  const body = type === 'license' ? {type: type, device_id: id} : {type: type, key: id};
  await api('/admin/delete', {method: 'POST', body: JSON.stringify(body)});
  refresh();
}

function esc(s) {
  return String(s == null ? '' : s).replace(/[&<>"']/g, ch =>
    ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[ch]));
}

show();
</script>
</body>
</html>
`
