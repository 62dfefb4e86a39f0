package server

// Minimal functional widget page. Styling is deliberately sparse; the
// page only has to drive the API and render the live-updating transcript.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>StormShield Risk Management Bot</title>
<style>
body { font-family: sans-serif; max-width: 800px; margin: 2em auto; }
#chat { border: 1px solid #ccc; height: 600px; overflow-y: auto; padding: 1em; }
.user { text-align: right; color: #036; margin: .5em 0; }
.assistant { text-align: left; color: #222; margin: .5em 0; white-space: pre-wrap; }
.error { color: #a00; }
#row { display: flex; gap: .5em; margin-top: .5em; }
#input { flex: 1; padding: .5em; }
</style>
</head>
<body>
<h1>StormShield Risk Management Bot</h1>
<p>Try one of these prompts:</p>
<ul>
<li>How can sensors misread water levels in the first months?</li>
<li>Would StormShield barriers fit smoothly with the older seawall?</li>
<li>Are city computers too old to run StormShield?</li>
<li>Evaluate the expert claims and the recommended budget.</li>
</ul>
<div id="chat"></div>
<div id="row">
<input id="input" placeholder="Ask me about StormShield!">
<button id="send">Send</button>
</div>
<script>
const qs = window.location.search;
const chat = document.getElementById("chat");
const input = document.getElementById("input");

function addTurn(role, text) {
  const div = document.createElement("div");
  div.className = role;
  div.textContent = text;
  chat.appendChild(div);
  chat.scrollTop = chat.scrollHeight;
  return div;
}

async function init() {
  fetch("/api/session" + qs, {method: "POST"});
  const resp = await fetch("/api/history" + qs);
  if (!resp.ok) return;
  for (const turn of await resp.json()) {
    addTurn(turn.role, turn.content);
  }
}

async function send() {
  const message = input.value.trim();
  if (!message) return;
  input.value = "";
  addTurn("user", message);
  const reply = addTurn("assistant", "");

  const resp = await fetch("/api/chat" + qs, {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({message})
  });
  if (!resp.ok || !resp.body) {
    reply.classList.add("error");
    reply.textContent = "Something went wrong. Please try again.";
    return;
  }
  const reader = resp.body.getReader();
  const decoder = new TextDecoder();
  let pending = "";
  for (;;) {
    const {done, value} = await reader.read();
    if (done) break;
    pending += decoder.decode(value, {stream: true});
    const frames = pending.split("\n\n");
    pending = frames.pop();
    for (const frame of frames) {
      let event = "message", data = "";
      for (const line of frame.split("\n")) {
        if (line.startsWith("event: ")) event = line.slice(7);
        if (line.startsWith("data: ")) data = line.slice(6);
      }
      if (!data) continue;
      const payload = JSON.parse(data);
      if (event === "delta" || event === "done") {
        reply.textContent = payload.text;
      } else if (event === "error") {
        reply.classList.add("error");
        reply.textContent = payload.message;
      }
    }
  }
}

document.getElementById("send").addEventListener("click", send);
input.addEventListener("keydown", (e) => { if (e.key === "Enter") send(); });
init();
</script>
</body>
</html>
`
